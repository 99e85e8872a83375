package httperr

// messages maps business codes to the text shown to clinic staff.
var messages = map[string]string{
	"client_not_found":          "Client not found.",
	"package_required":          "Please select a package.",
	"invalid_package_id":        "Invalid package selection.",
	"package_not_found":         "Selected package not found or inactive.",
	"package_already_assigned":  "Package is already assigned to this client.",
	"client_package_not_found":  "Package assignment not found.",
	"package_completed":         "This package is already completed.",
	"service_required":          "Please select a service.",
	"invalid_service_id":        "Invalid service selection.",
	"service_not_found":         "Selected service not found or inactive.",
	"service_already_started":   "This service is already being tracked for the client.",
	"service_session_not_found": "Service session not found.",
	"service_completed":         "This service is already completed.",
	"staff_not_found":           "Staff member not found or inactive.",
	"appointment_not_found":     "Appointment not found.",
	"invalid_state":             "The appointment cannot change to that status.",
	"invalid_date_or_time":      "Invalid date or time.",
	"outside_working_hours":     "Outside the staff member's working hours.",
	"time_conflict":             "The staff member already has an appointment at that time.",
	"product_not_found":         "Product not found or inactive.",
	"insufficient_stock":        "Not enough stock for this product.",
	"invalid_order_item":        "Each item must reference exactly one product or service.",
	"appointment_mismatch":      "Appointment service must match the order item service.",
	"empty_order":               "The order has no items.",
	"invalid_quantity":          "Quantity must be at least 1.",
	"invalid_payment_method":    "Unknown payment method.",
	"order_not_found":           "Order not found.",
	"order_already_refunded":    "The order was already refunded.",
	"invalid_package_services":  "A package must include between 3 and 5 services.",
	"duplicate_sku":             "A product with this SKU already exists.",
	"invalid_photo":             "The uploaded file is not a supported image.",
}

// Message returns the staff-facing text for a business code.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return "The request could not be completed."
}
