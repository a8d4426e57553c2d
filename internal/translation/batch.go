package translation

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// maxConcurrent bounds outstanding provider requests for one batch
	maxConcurrent = 4

	// DefaultTimeout is the per-phrase budget used when none is configured
	DefaultTimeout = 10 * time.Second
)

// TranslateAll translates every distinct phrase concurrently and waits for all of them.
// A phrase whose translation fails or times out maps to itself. The returned map is
// always complete; the error is set only when ctx ended before the batch did, in which
// case the remaining phrases are not requested.
func TranslateAll(ctx context.Context, tr Translator, phrases []string, timeout time.Duration) (map[string]string, error) {
	unique := make([]string, 0, len(phrases))
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	results := make([]string, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, phrase := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			callCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			translated, err := tr.Translate(callCtx, phrase)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("Translation failed, keeping source name", "phrase", phrase, "error", err)
				return nil
			}
			results[i] = translated
			return nil
		})
	}
	err := g.Wait()

	out := make(map[string]string, len(unique))
	for i, phrase := range unique {
		out[phrase] = results[i]
		if out[phrase] == "" {
			out[phrase] = phrase
		}
	}
	return out, err
}
