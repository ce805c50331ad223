package errors

// Stable error codes for the resolution failure taxonomy.
const (
	// CodePathSyntax is a malformed segment token, non-terminal catch-all,
	// or invalid identifier.
	CodePathSyntax = "R001"

	// CodeRouteDiscovery means the configured root is missing or not a
	// directory.
	CodeRouteDiscovery = "R002"

	// CodeDuplicateRoute means two source files resolve to the same
	// (path, method) pair.
	CodeDuplicateRoute = "R003"

	// CodeMiddlewareContract means a middleware declaration contains an
	// entry that is not a middleware or does not accept a continuation.
	CodeMiddlewareContract = "R004"

	// CodeFilterConflict means both include and exclude filters were
	// supplied non-empty.
	CodeFilterConflict = "R005"

	// CodeLoader wraps a handler-loading failure for a retained route file.
	CodeLoader = "R006"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	CodePathSyntax: {
		Category:   CategorySyntax,
		Message:    "Invalid path segment",
		Detail:     "Directory names in the route tree must be one of the four segment shapes or a static name.",
		Suggestion: "Use [param], [[param]], [...param], (group), or lowercase-with-dashes.",
	},
	CodeRouteDiscovery: {
		Category: CategoryDiscovery,
		Message:  "Route tree root is not scannable",
		Detail:   "The configured root must exist and be a directory.",
	},
	CodeDuplicateRoute: {
		Category:   CategoryConflict,
		Message:    "Duplicate route",
		Detail:     "Two route files resolve to the same method and path. Group segments and optional-parameter variants can collapse distinct directories onto one URL.",
		Suggestion: "Rename or remove one of the conflicting route files.",
	},
	CodeMiddlewareContract: {
		Category:   CategoryMiddleware,
		Message:    "Invalid middleware declaration",
		Detail:     "Middleware must be a single middleware value or a list of them, each accepting (ctx, next).",
		Suggestion: "Declare middleware as func(ctx *middleware.Ctx, next middleware.Next) (middleware.Outcome, error).",
	},
	CodeFilterConflict: {
		Category:   CategoryFilter,
		Message:    "Conflicting route filters",
		Detail:     "include and exclude are mutually exclusive; supply at most one of them.",
		Suggestion: "Drop either the include or the exclude list.",
	},
	CodeLoader: {
		Category: CategoryLoader,
		Message:  "Handler loading failed",
		Detail:   "A retained route file could not be loaded. Loading is fail-fast at resolve time, never deferred to the first request.",
	},
}
