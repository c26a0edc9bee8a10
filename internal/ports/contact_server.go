package ports

// ContactServer defines the interface for the contact form front end
type ContactServer interface {
	// Start starts accepting submissions
	Start() error

	// Stop stops accepting submissions and drains in-flight requests
	Stop() error
}
