package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
)

// ======================================================
// DATA SET
// ======================================================

type demoService struct {
	name        string
	description string
	duration    int
	price       float64
	sessions    int
}

var demoServices = []demoService{
	{"Classic Facial", "Deep cleansing facial with extraction and moisturizing", 60, 85, 1},
	{"Hydrating Facial", "Intense hydration treatment for dry skin", 75, 120, 1},
	{"Anti-Aging Facial", "Rejuvenating treatment with anti-aging serums", 90, 150, 1},
	{"Acne Treatment", "Specialized treatment for acne-prone skin", 60, 95, 1},
	{"Microdermabrasion", "Deep exfoliation treatment", 45, 110, 1},
	{"Chemical Peel", "Professional chemical peel treatment", 60, 130, 1},
	{"LED Light Therapy", "LED light treatment for skin rejuvenation", 30, 75, 1},
	{"Botox Consultation", "Consultation for Botox treatment", 30, 50, 1},
	{"Laser Hair Removal", "Professional laser hair removal treatment", 45, 150, 6},
	{"PRP Treatment", "Platelet-Rich Plasma facial rejuvenation", 60, 200, 3},
	{"RF Skin Tightening", "Radio Frequency skin tightening treatment", 60, 180, 4},
	{"Microneedling", "Collagen induction therapy", 45, 120, 3},
}

type demoStaff struct {
	first, last    string
	specialization string
	bio            string
	// hours by weekday (1 = Monday); missing days are off.
	hours map[int][2]string
}

func weekdays(start, end, friday string) map[int][2]string {
	return map[int][2]string{
		1: {start, end}, 2: {start, end}, 3: {start, end}, 4: {start, end},
		5: {start, friday},
	}
}

var demoStaffMembers = []demoStaff{
	{"Sarah", "Johnson", "Lead Esthetician", "10 years of experience in skincare treatments", weekdays("09:00", "17:00", "15:00")},
	{"Emily", "Chen", "Facial Specialist", "Specialized in anti-aging and hydrating treatments", weekdays("10:00", "18:00", "16:00")},
	{"Michael", "Rodriguez", "Dermatologist", "Board-certified dermatologist specializing in cosmetic procedures", map[int][2]string{
		1: {"08:00", "16:00"}, 2: {"08:00", "16:00"}, 4: {"08:00", "16:00"}, 5: {"08:00", "14:00"},
	}},
}

type demoClient struct {
	first, last, email string
	born               string
	address, notes     string
}

var demoClients = []demoClient{
	{"Amanda", "Smith", "amanda.smith@email.com", "1990-05-15", "123 Main Street, Beirut, Lebanon", "Prefers morning appointments, sensitive skin"},
	{"Jessica", "Williams", "jessica.williams@email.com", "1985-08-22", "456 Oak Avenue, Beirut, Lebanon", "Regular client, loves hydrating facials"},
	{"Maria", "Garcia", "maria.garcia@email.com", "1992-03-10", "789 Pine Road, Beirut, Lebanon", "New client, interested in anti-aging treatments"},
	{"Jennifer", "Brown", "jennifer.brown@email.com", "1988-11-30", "321 Elm Street, Beirut, Lebanon", "Has acne concerns, prefers Dr. Rodriguez"},
	{"Lisa", "Anderson", "lisa.anderson@email.com", "1995-07-05", "654 Maple Drive, Beirut, Lebanon", "Regular facial treatments monthly"},
	{"Sophia", "Martinez", "sophia.martinez@email.com", "1987-02-18", "987 Cedar Lane, Beirut, Lebanon", "VIP client, prefers afternoon appointments"},
}

var demoProducts = []models.Product{
	{Name: "Hydrating Serum", Description: "Intensive hydrating serum with hyaluronic acid", SKU: "SKU-HS-001", Price: 45, StockQty: 25},
	{Name: "Vitamin C Brightening Cream", Description: "Brightening cream with Vitamin C and antioxidants", SKU: "SKU-VC-002", Price: 65, StockQty: 18},
	{Name: "Gentle Cleanser", Description: "Daily gentle cleanser for all skin types", SKU: "SKU-GC-003", Price: 28, StockQty: 35},
	{Name: "SPF 50 Sunscreen", Description: "Broad spectrum sunscreen for daily protection", SKU: "SKU-SPF-004", Price: 42, StockQty: 42},
	{Name: "Retinol Night Cream", Description: "Anti-aging night cream with retinol", SKU: "SKU-RNC-005", Price: 85, StockQty: 12},
	{Name: "Acne Spot Treatment", Description: "Targeted treatment for acne spots", SKU: "SKU-AST-006", Price: 32, StockQty: 28},
	{Name: "Exfoliating Toner", Description: "Gentle exfoliating toner with AHA/BHA", SKU: "SKU-ET-007", Price: 38, StockQty: 20},
	{Name: "Eye Cream", Description: "Firming and hydrating eye cream", SKU: "SKU-EC-008", Price: 55, StockQty: 15},
	{Name: "Face Mask Set", Description: "Set of 5 hydrating face masks", SKU: "SKU-FMS-009", Price: 48, StockQty: 30},
	{Name: "Anti-Aging Serum", Description: "Advanced anti-aging serum with peptides", SKU: "SKU-AAS-010", Price: 95, StockQty: 8},
}

type demoPackage struct {
	name, description string
	sessions          int
	price             float64
	services          []int
}

var demoPackages = []demoPackage{
	{"Premium Facial Package", "Complete facial treatment package with multiple services", 10, 850, []int{0, 1, 2, 4}},
	{"Acne Clear Package", "Comprehensive acne treatment package", 8, 680, []int{3, 6, 4}},
	{"Rejuvenation Complete", "Full skin rejuvenation package", 12, 1200, []int{1, 2, 5, 6, 4}},
	{"Quick Glow Package", "Quick treatment package for busy clients", 6, 480, []int{0, 4, 6}},
}

// Index pairs are (client, package or service, sessions completed).
var (
	demoClientPackages  = [][3]int{{0, 0, 3}, {1, 1, 5}, {2, 2, 2}, {4, 3, 6}, {5, 0, 8}}
	demoServiceSessions = [][3]int{{0, 8, 2}, {1, 9, 1}, {2, 10, 3}, {3, 11, 3}, {5, 8, 4}, {0, 9, 2}}
)

type demoAppointment struct {
	client, service, staff int
	dayOffset              int
	at                     string
	status                 appointment.Status
	notes                  string
}

var demoAppointments = []demoAppointment{
	{0, 0, 0, 2, "10:00", appointment.StatusConfirmed, "First time client, excited about the treatment"},
	{1, 1, 1, 3, "14:00", appointment.StatusConfirmed, "Regular monthly appointment"},
	{2, 2, 1, 5, "11:00", appointment.StatusPending, "New to anti-aging treatments"},
	{3, 3, 2, 1, "09:00", appointment.StatusConfirmed, "Follow-up appointment"},
	{4, 0, 0, -5, "13:00", appointment.StatusCompleted, "Treatment went well, client was satisfied"},
	{5, 4, 0, -3, "15:00", appointment.StatusCompleted, "Excellent results, scheduled follow-up"},
}

type demoLine struct {
	product, service int // -1 when unused
	appointment      int // index into demoAppointments, -1 when unused
}

type demoOrder struct {
	client int // -1 for a walk-in
	method order.PaymentMethod
	notes  string
	lines  []demoLine
}

var demoOrders = []demoOrder{
	{4, order.PaymentCard, "Order from completed appointment", []demoLine{{0, -1, -1}, {3, -1, -1}, {-1, 0, 4}}},
	{5, order.PaymentCash, "Walk-in purchase", []demoLine{{1, -1, -1}, {7, -1, -1}, {-1, 4, 5}}},
	{-1, order.PaymentCash, "Walk-in customer, no client record", []demoLine{{2, -1, -1}, {8, -1, -1}}},
	{0, order.PaymentCard, "Pre-appointment purchase", []demoLine{{4, -1, -1}, {6, -1, -1}}},
}

// ======================================================
// USE CASE
// ======================================================

type DemoResult struct {
	Services        int `json:"services"`
	Staff           int `json:"staff"`
	Clients         int `json:"clients"`
	Products        int `json:"products"`
	Packages        int `json:"packages"`
	ClientPackages  int `json:"client_packages"`
	ServiceSessions int `json:"service_sessions"`
	Appointments    int `json:"appointments"`
	Orders          int `json:"orders"`
}

type SeedDemo struct {
	db    *gorm.DB
	audit *audit.Dispatcher
	now   func() time.Time
}

func NewSeedDemo(db *gorm.DB, audit *audit.Dispatcher) *SeedDemo {
	return &SeedDemo{db: db, audit: audit, now: timezone.Now}
}

// Execute loads the demo data set. Rows are matched on natural keys, so a
// second run creates nothing. With clear set, clinic data and every
// non-superuser account are removed first.
func (uc *SeedDemo) Execute(ctx context.Context, a actor.Actor, clear bool) (*DemoResult, error) {
	res := &DemoResult{}
	now := uc.now()

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clear {
			if err := clearDemo(tx); err != nil {
				return err
			}
		}
		s := seeder{tx: tx, res: res, now: now}
		return s.run()
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "demo_data_loaded",
		Entity:   "client",
		Metadata: res,
	})
	return res, nil
}

func clearDemo(tx *gorm.DB) error {
	global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{
		&models.OrderItem{},
		&models.Order{},
		&models.Appointment{},
		&models.ClientPackage{},
		&models.ClientServiceSession{},
		&models.PackageService{},
		&models.Package{},
		&models.Product{},
		&models.Service{},
		&models.WorkingHours{},
		&models.StaffMember{},
		&models.Client{},
	} {
		if err := global.Delete(m).Error; err != nil {
			return err
		}
	}
	return tx.Where("is_superuser = ?", false).Delete(&models.User{}).Error
}

// ======================================================
// SEEDER
// ======================================================

type seeder struct {
	tx  *gorm.DB
	res *DemoResult
	now time.Time

	services     []models.Service
	staff        []models.StaffMember
	clients      []models.Client
	products     []models.Product
	packages     []models.Package
	appointments []models.Appointment
}

// firstOrCreate reports whether a row was inserted.
func (s *seeder) firstOrCreate(dst any, where any, attrs any) (bool, error) {
	r := s.tx.Where(where).Attrs(attrs).FirstOrCreate(dst)
	return r.RowsAffected > 0, r.Error
}

func (s *seeder) run() error {
	for _, step := range []func() error{
		s.seedServices,
		s.seedStaff,
		s.seedClients,
		s.seedProducts,
		s.seedPackages,
		s.seedEnrollments,
		s.seedAppointments,
		s.seedOrders,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedServices() error {
	for _, d := range demoServices {
		var svc models.Service
		created, err := s.firstOrCreate(&svc, models.Service{Name: d.name}, models.Service{
			Description:      d.description,
			DurationMin:      d.duration,
			Price:            d.price,
			SessionsRequired: d.sessions,
			IsActive:         true,
		})
		if err != nil {
			return err
		}
		if created {
			s.res.Services++
		}
		s.services = append(s.services, svc)
	}
	return nil
}

func (s *seeder) seedStaff() error {
	for _, d := range demoStaffMembers {
		var st models.StaffMember
		created, err := s.firstOrCreate(&st, models.StaffMember{FirstName: d.first, LastName: d.last}, models.StaffMember{
			Phone:          "+961 03 441 339",
			Specialization: d.specialization,
			Bio:            d.bio,
			IsActive:       true,
		})
		if err != nil {
			return err
		}
		if created {
			s.res.Staff++
			for day, h := range d.hours {
				if err := s.tx.Create(&models.WorkingHours{
					StaffID:   st.ID,
					Weekday:   day,
					StartTime: h[0],
					EndTime:   h[1],
					Active:    true,
				}).Error; err != nil {
					return err
				}
			}
		}
		s.staff = append(s.staff, st)
	}
	return nil
}

func (s *seeder) seedClients() error {
	for _, d := range demoClients {
		born, err := timezone.ParseDate(d.born)
		if err != nil {
			return err
		}
		var cl models.Client
		created, err := s.firstOrCreate(&cl, models.Client{Email: d.email}, models.Client{
			FirstName:   d.first,
			LastName:    d.last,
			Phone:       "+961 03 441 339",
			DateOfBirth: &born,
			Address:     d.address,
			Notes:       d.notes,
			IsActive:    true,
		})
		if err != nil {
			return err
		}
		if created {
			s.res.Clients++
		}
		s.clients = append(s.clients, cl)
	}
	return nil
}

func (s *seeder) seedProducts() error {
	for _, d := range demoProducts {
		attrs := d
		attrs.IsActive = true

		var p models.Product
		created, err := s.firstOrCreate(&p, models.Product{SKU: d.SKU}, attrs)
		if err != nil {
			return err
		}
		if created {
			s.res.Products++
		}
		s.products = append(s.products, p)
	}
	return nil
}

func (s *seeder) seedPackages() error {
	for _, d := range demoPackages {
		var pkg models.Package
		created, err := s.firstOrCreate(&pkg, models.Package{Name: d.name}, models.Package{
			Description:   d.description,
			TotalSessions: d.sessions,
			Price:         d.price,
			IsActive:      true,
		})
		if err != nil {
			return err
		}

		services := make([]models.Service, 0, len(d.services))
		for _, i := range d.services {
			services = append(services, s.services[i])
		}
		if err := s.tx.Model(&pkg).Association("Services").Replace(services); err != nil {
			return err
		}
		if created {
			s.res.Packages++
		}
		s.packages = append(s.packages, pkg)
	}
	return nil
}

func (s *seeder) progress(total, completed int) models.SessionProgress {
	p := enrollment.NewProgress(total)
	p.SessionsCompleted = completed
	if completed >= p.TotalSessions {
		p.SessionsCompleted = p.TotalSessions
		p.IsCompleted = true
		at := s.now.UTC()
		p.CompletedAt = &at
	}
	return p
}

func (s *seeder) seedEnrollments() error {
	for _, d := range demoClientPackages {
		client, pkg := s.clients[d[0]], s.packages[d[1]]
		var cp models.ClientPackage
		created, err := s.firstOrCreate(&cp,
			models.ClientPackage{ClientID: client.ID, PackageID: pkg.ID},
			models.ClientPackage{
				SessionProgress: s.progress(pkg.TotalSessions, d[2]),
				AssignedAt:      s.now.UTC(),
			})
		if err != nil {
			return err
		}
		if created {
			s.res.ClientPackages++
		}
	}

	for _, d := range demoServiceSessions {
		client, svc := s.clients[d[0]], s.services[d[1]]
		var ss models.ClientServiceSession
		created, err := s.firstOrCreate(&ss,
			models.ClientServiceSession{ClientID: client.ID, ServiceID: svc.ID},
			models.ClientServiceSession{
				SessionProgress: s.progress(svc.SessionsRequired, d[2]),
				StartedAt:       s.now.UTC(),
			})
		if err != nil {
			return err
		}
		if created {
			s.res.ServiceSessions++
		}
	}
	return nil
}

func (s *seeder) seedAppointments() error {
	loc := s.now.Location()
	day := time.Date(s.now.Year(), s.now.Month(), s.now.Day(), 0, 0, 0, 0, loc)

	for _, d := range demoAppointments {
		at, err := time.ParseInLocation("15:04", d.at, loc)
		if err != nil {
			return err
		}
		start := day.AddDate(0, 0, d.dayOffset).Add(time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute)
		svc := s.services[d.service]

		attrs := models.Appointment{
			EndTime: start.Add(time.Duration(svc.DurationMin) * time.Minute).UTC(),
			Status:  string(d.status),
			Notes:   d.notes,
		}
		if d.status == appointment.StatusCompleted {
			done := attrs.EndTime
			attrs.CompletedAt = &done
		}

		var ap models.Appointment
		created, err := s.firstOrCreate(&ap, models.Appointment{
			ClientID:  s.clients[d.client].ID,
			ServiceID: svc.ID,
			StaffID:   s.staff[d.staff].ID,
			StartTime: start.UTC(),
		}, attrs)
		if err != nil {
			return err
		}
		if created {
			s.res.Appointments++
		}
		s.appointments = append(s.appointments, ap)
	}
	return nil
}

func (s *seeder) seedOrders() error {
	for _, d := range demoOrders {
		var clientID *uint
		if d.client >= 0 {
			id := s.clients[d.client].ID
			clientID = &id
		}

		q := s.tx.Model(&models.Order{}).Where("notes = ?", d.notes)
		if clientID == nil {
			q = q.Where("client_id IS NULL")
		} else {
			q = q.Where("client_id = ?", *clientID)
		}
		var existing int64
		if err := q.Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			continue
		}

		o := models.Order{
			ClientID:      clientID,
			PaymentMethod: string(d.method),
			PaymentStatus: string(order.StatusPaid),
			Notes:         d.notes,
		}
		for _, l := range d.lines {
			item := models.OrderItem{Quantity: 1}
			if l.product >= 0 {
				p := s.products[l.product]
				item.ProductID, item.UnitPrice = &p.ID, p.Price
			} else {
				svc := s.services[l.service]
				item.ServiceID, item.UnitPrice = &svc.ID, svc.Price
			}
			if l.appointment >= 0 {
				item.AppointmentID = &s.appointments[l.appointment].ID
			}
			item.Subtotal = item.UnitPrice * float64(item.Quantity)
			o.TotalPrice += item.Subtotal
			o.Items = append(o.Items, item)
		}

		if err := s.tx.Create(&o).Error; err != nil {
			return err
		}
		s.res.Orders++
	}
	return nil
}
