package domain

import "context"

// ExternalTool is the command-line media-extraction tool the relay delegates to
type ExternalTool interface {
	// DumpMetadata returns the tool's structured metadata output for url
	DumpMetadata(ctx context.Context, url string) ([]byte, error)

	// FetchFile downloads url in the requested format to req.OutputTemplate
	FetchFile(ctx context.Context, req FetchRequest) error
}

// FetchRequest describes a single fetch-and-save invocation
type FetchRequest struct {
	URL      string
	FormatID string
	// OutputTemplate is the output path; it may end in the tool's
	// "%(ext)s" placeholder so the tool picks the final extension.
	OutputTemplate string
	AudioOnly      bool
}
