package internal

type GlobalCommandOptions struct {
	// Cwd allows the user to override the current working directory, temporarily.
	// The root command will take care of cd'ing into that folder before your command
	// and cd'ing back to the original folder after the commands complete (to make testing
	// easier)
	Cwd string

	// EnableDebugLogging turns on logging from rdl and the tools it launches. It's enabled with `--debug`, for any
	// command, or with RDL_DEBUG=true.
	EnableDebugLogging bool

	// when true, interactive prompts should behave as if the user selected the default value.
	// Message boxes are printed and are not waited on.
	NoPrompt bool

	// TraceLogFile is the file spans are written to.
	TraceLogFile string

	// TraceLogUrl is the OTLP/HTTP endpoint spans are sent to. Tracing is off when both TraceLogFile and TraceLogUrl
	// are empty.
	TraceLogUrl string
}
