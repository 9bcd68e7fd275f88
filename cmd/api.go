package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct authenticated GET request to the Yoto API.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	if r.yoto == nil {
		if err := r.wire(); err != nil {
			return err
		}
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.yoto.Get(ctx, path)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	_, err = r.output.Write([]byte("\n"))
	return err
}
