// Package assistant wraps the external AI model behind a single-call
// interface. The engine hands it a fully assembled prompt and receives the
// text to deliver; model choice and transport stay in here.
package assistant

import "context"

// Assistant runs one prompt to completion. Implementations must honor the
// context deadline.
type Assistant interface {
	Run(ctx context.Context, prompt string) (string, error)
}
