// Package provision invokes the external per-tenant infrastructure script
// (certificate issuance, vhost setup) after registration.
package provision

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

const scriptTimeout = 5 * time.Minute

// Runner runs the configured provisioning script. An empty script path
// disables provisioning entirely.
type Runner struct {
	script string
}

func NewRunner(script string) *Runner {
	return &Runner{script: script}
}

// Disabled reports whether a script is configured.
func (r *Runner) Disabled() bool { return r.script == "" }

// Provision runs the script with the tenant subdomain as its argument, in
// the background. Failure is logged only and never surfaced to the
// registering user.
func (r *Runner) Provision(subdomain string) {
	if r.Disabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, r.script, subdomain).CombinedOutput()
		if err != nil {
			slog.Error("provisioning failed", "subdomain", subdomain, "error", err, "output", string(out))
			return
		}
		slog.Info("provisioning finished", "subdomain", subdomain)
	}()
}
