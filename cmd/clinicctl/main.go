// Command clinicctl runs maintenance tasks against the clinic database:
// backups, restores, catalog import, package repricing and bootstrap.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/backup"
	"github.com/BruksfildServices01/clinic-pos/internal/config"
	dbpkg "github.com/BruksfildServices01/clinic-pos/internal/db"
	"github.com/BruksfildServices01/clinic-pos/internal/logger"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/catalog"
)

const usage = `usage: clinicctl <command> [flags]

commands:
  backup            create a backup archive
  restore <file>    restore data and files from an archive
  import-services   load services and packages from a JSON file
  apply-discounts   reprice packages from their original price
  create-superuser  create the SUPERUSER_USERNAME account if missing
  seed-demo         load demo clients, staff, products and bookings
  migrate           create or update database tables
`

type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	db    *gorm.DB
	audit *audit.Dispatcher
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.Debug)
	timezone.SetDefault(cfg.Timezone)

	db := dbpkg.NewDB(cfg, log)
	a := &app{cfg: cfg, log: log, db: db, audit: audit.NewDispatcher(audit.New(db), log)}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "backup":
		err = a.backup(ctx, args)
	case "restore":
		err = a.restore(ctx, args)
	case "import-services":
		err = a.importServices(ctx, args)
	case "apply-discounts":
		err = a.applyDiscounts(ctx, args)
	case "create-superuser":
		err = a.createSuperuser(ctx)
	case "seed-demo":
		err = a.seedDemo(ctx, args)
	case "migrate":
		// NewDB already migrated.
		log.Info("migrations applied")
	default:
		fmt.Fprint(os.Stderr, usage)
		a.audit.Close()
		os.Exit(2)
	}

	a.audit.Close()
	if err != nil {
		log.WithError(err).WithField("command", cmd).Error("command failed")
		os.Exit(1)
	}
}

func (a *app) engine(dir string) *backup.Engine {
	opts := backup.Options{
		Dir:        dir,
		Prefix:     a.cfg.BackupPrefix,
		MediaRoot:  a.cfg.MediaRoot,
		StaticDirs: a.cfg.StaticDirs,
		Audit:      a.audit,
		Log:        a.log,
	}
	if a.cfg.IsSQLite() {
		opts.SQLitePath = a.cfg.SQLitePath()
	}
	if a.cfg.BackupS3Bucket != "" {
		opts.Uploader = backup.NewS3Uploader(backup.S3Config{
			Bucket:    a.cfg.BackupS3Bucket,
			Region:    a.cfg.BackupS3Region,
			Endpoint:  a.cfg.BackupS3Endpoint,
			AccessKey: a.cfg.AWSAccessKeyID,
			SecretKey: a.cfg.AWSSecretKey,
		})
	}
	return backup.New(a.db, opts)
}

// ======================================================
// BACKUP / RESTORE
// ======================================================

func (a *app) backup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dir := fs.String("output-dir", a.cfg.BackupDir, "directory for the archive")
	_ = fs.Parse(args)

	info, err := a.engine(*dir).Create(ctx, actor.System)
	if err != nil {
		return err
	}
	fmt.Printf("Backup created: %s (%d bytes)\n", info.Name, info.Size)
	if info.UploadErr != nil {
		fmt.Printf("Warning: off-site upload failed: %v\n", info.UploadErr)
	}
	return nil
}

func (a *app) restore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	noData := fs.Bool("no-data", false, "skip database tables")
	noMedia := fs.Bool("no-media", false, "skip media files")
	noStatic := fs.Bool("no-static", false, "skip static files")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	_ = fs.Parse(reorder(args))

	if fs.NArg() != 1 {
		return fmt.Errorf("restore needs exactly one archive path")
	}
	path := fs.Arg(0)

	if !*yes {
		fmt.Printf("This replaces the current data with the contents of %s.\nType 'yes' to continue: ", path)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(line)) != "yes" {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	report, err := a.engine(a.cfg.BackupDir).Restore(ctx, actor.System, path, backup.RestoreOptions{
		SkipData:   *noData,
		SkipMedia:  *noMedia,
		SkipStatic: *noStatic,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Restored backup created at %s by %s\n", report.Manifest.CreatedAt.Format("2006-01-02 15:04:05"), report.Manifest.CreatedBy)
	tables := make([]string, 0, len(report.Tables))
	for t := range report.Tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Printf("  %-28s %d rows\n", t, report.Tables[t])
	}
	fmt.Printf("  media files: %d, static files: %d\n", report.MediaFiles, report.StaticFiles)
	return nil
}

// reorder moves flags ahead of positional arguments so that
// "restore file.zip -yes" parses like "restore -yes file.zip".
func reorder(args []string) []string {
	var flags, rest []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
		} else {
			rest = append(rest, a)
		}
	}
	return append(flags, rest...)
}

// ======================================================
// CATALOG
// ======================================================

func (a *app) importServices(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-services", flag.ExitOnError)
	file := fs.String("file", "cleaned_data.json", "JSON file with services and packages")
	clearFirst := fs.Bool("clear", false, "remove existing services and packages first")
	_ = fs.Parse(args)

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := catalog.NewImportServices(a.db, a.audit).Execute(ctx, actor.System, f, *clearFirst)
	if err != nil {
		return err
	}

	fmt.Printf("Services: %d created, %d updated\n", res.ServicesCreated, res.ServicesUpdated)
	fmt.Printf("Packages: %d created, %d updated\n", res.PackagesCreated, res.PackagesUpdated)
	for _, w := range res.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	return nil
}

func (a *app) applyDiscounts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("apply-discounts", flag.ExitOnError)
	pct := fs.Float64("discount", catalog.DefaultDiscount, "discount percentage")
	_ = fs.Parse(args)

	if *pct < 0 || *pct > 100 {
		return fmt.Errorf("discount must be between 0 and 100")
	}

	changes, err := catalog.NewApplyPackageDiscount(a.db, a.audit).Execute(ctx, actor.System, *pct)
	if err != nil {
		return err
	}
	for _, ch := range changes {
		fmt.Printf("%s: %.2f -> %.2f (original %.2f)\n", ch.Package, ch.Old, ch.New, ch.Original)
	}
	fmt.Printf("Updated %d packages\n", len(changes))
	return nil
}

func (a *app) seedDemo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)
	clearFirst := fs.Bool("clear", false, "remove clinic data and non-superuser accounts first")
	_ = fs.Parse(args)

	res, err := catalog.NewSeedDemo(a.db, a.audit).Execute(ctx, actor.System, *clearFirst)
	if err != nil {
		return err
	}

	fmt.Printf("Services: %d, Staff: %d, Clients: %d, Products: %d\n", res.Services, res.Staff, res.Clients, res.Products)
	fmt.Printf("Packages: %d, Client packages: %d, Service sessions: %d\n", res.Packages, res.ClientPackages, res.ServiceSessions)
	fmt.Printf("Appointments: %d, Orders: %d\n", res.Appointments, res.Orders)
	return nil
}

func (a *app) createSuperuser(ctx context.Context) error {
	created, err := catalog.NewCreateSuperuser(a.db).Execute(
		ctx,
		a.cfg.SuperuserUsername,
		a.cfg.SuperuserEmail,
		a.cfg.SuperuserPassword,
	)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Superuser %q created\n", a.cfg.SuperuserUsername)
	} else {
		fmt.Printf("Superuser %q already exists\n", a.cfg.SuperuserUsername)
	}
	return nil
}
