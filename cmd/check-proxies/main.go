// check-proxies fetches the configured proxy list sources, probes every
// candidate and prints the working pool ranked by latency. Use to see
// what the aggregator would get from the free lists right now.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	pkgconfig "github.com/MinorTermite/prizmbet-v2/internal/pkg/config"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/proxy"
)

func main() {
	configPath := flag.String("config", "configs/production.yaml", "Path to YAML config")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall probe deadline")
	flag.Parse()

	sources := proxy.DefaultSources
	if cfg, err := pkgconfig.Load(*configPath); err == nil && len(cfg.Proxy.Sources) > 0 {
		sources = cfg.Proxy.Sources
	}

	fmt.Printf("Probing candidates from %d list sources...\n\n", len(sources))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mgr := proxy.NewManager(sources)
	mgr.Refresh(ctx)

	pool := mgr.Pool()
	if len(pool) == 0 {
		fmt.Println("No working proxies found; the aggregator would run direct.")
		os.Exit(1)
	}

	fmt.Printf("%-40s %s\n", "PROXY", "LATENCY")
	for _, e := range pool {
		fmt.Printf("%-40s %s\n", e.URL, e.Latency.Round(time.Millisecond))
	}
	fmt.Printf("\n%d working proxies.\n", len(pool))
}
