package commands

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/nfsclient/internal/logger"
	"github.com/marmos91/nfsclient/pkg/config"
	"github.com/marmos91/nfsclient/pkg/metrics"
	promimpl "github.com/marmos91/nfsclient/pkg/metrics/prometheus"
	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

// device is the registry name every nfsctl invocation mounts under.
const device = "nfs"

// parseTarget splits "SERVER:/EXPORT" into its parts.
func parseTarget(target string) (server, export string, err error) {
	idx := strings.IndexByte(target, ':')
	if idx <= 0 || idx == len(target)-1 {
		return "", "", fmt.Errorf("target %q is not of the form SERVER:/EXPORT", target)
	}
	server, export = target[:idx], target[idx+1:]
	if !strings.HasPrefix(export, "/") {
		return "", "", fmt.Errorf("export path %q must be absolute", export)
	}
	return server, export, nil
}

// devicePath prefixes an in-export path with the mounted device name.
func devicePath(rel string) string {
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return device + ":" + rel
}

// withMount loads configuration, mounts the target and runs fn, always
// unmounting afterwards.
func withMount(target string, fn func(*nfsclient.Registry) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config(cfg.Logging)); err != nil {
		return err
	}

	var clientMetrics metrics.ClientMetrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics.InitRegistry(reg)
		clientMetrics = promimpl.NewClientMetrics()

		// Scrapeable for the lifetime of the command.
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				logger.Warn("metrics endpoint failed", "error", err)
			}
		}()
	}

	server, export, err := parseTarget(target)
	if err != nil {
		return err
	}

	registry := nfsclient.NewRegistry(cfg.Client.RegistryConfig(), clientMetrics)
	if err := registry.Mount(device, server, export, nfsclient.MountOptions{
		UID:      cfg.Client.UID,
		GID:      cfg.Client.GID,
		ReadOnly: readOnly,
	}); err != nil {
		return err
	}
	defer func() {
		if err := registry.Unmount(device); err != nil {
			logger.Warn("unmount failed", "error", err)
		}
	}()

	return fn(registry)
}
