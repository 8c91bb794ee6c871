package landlord

// Version is the client library version reported in the User-Agent header.
const Version = "1.3.0"

// DefaultEndpoint is the production Landlord directory.
const DefaultEndpoint = "https://landlord.brightspace.com"

const defaultUserAgent = "go-landlord-client/" + Version

// instrumentationName identifies the tracer used for directory spans.
const instrumentationName = "github.com/dmitrymomot/landlord"
