// Command normalize runs one provider normalizer over a raw payload file and
// prints the canonical modules as JSON. It uses the same provider packages as
// the service, so its output matches what the pipeline would write.
//
// Usage:
//
//	go run ./cmd/normalize \
//	  -provider clientraw \
//	  -in testdata/clientraw.txt \
//	  -catalog stations.yaml -guid 42 \
//	  -at 2024-06-01T12:00:00Z
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"

	"github.com/couchcryptid/station-telemetry-etl/internal/config"
	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
	"github.com/couchcryptid/station-telemetry-etl/internal/provider"
	"github.com/couchcryptid/station-telemetry-etl/internal/registry"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "normalize:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	name := fs.String("provider", "", "provider family of the payload")
	in := fs.String("in", "-", "payload file, - for stdin")
	catalogPath := fs.String("catalog", "", "YAML catalog file for providers without station identity")
	guid := fs.Int64("guid", 0, "catalog GUID of the station the payload belongs to")
	at := fs.String("at", "", "reception time (RFC 3339); defaults to now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -provider")
	}

	// A fixed clock makes the output reproducible.
	clock := clockwork.NewRealClock()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
		clock = clockwork.NewFakeClockAt(t)
	}
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	body, err := readInput(*in, stdin)
	if err != nil {
		return err
	}

	catalog := domain.StationList{}
	if *catalogPath != "" {
		if catalog, err = config.LoadCatalogFile(*catalogPath); err != nil {
			return err
		}
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelDebug}))
	reg, err := registry.New(provider.Deps{Logger: logger}, []string{*name})
	if err != nil {
		return err
	}
	prov, err := reg.Lookup(*name)
	if err != nil {
		return err
	}

	modules, err := prov.Normalize(domain.Payload{
		Provider:   prov.Name(),
		GUID:       *guid,
		Body:       body,
		ReceivedAt: domain.Now(),
	}, catalog)
	if err != nil {
		return err
	}
	logger.Info("normalized", "provider", prov.Name(), "modules", len(modules))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(modules)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return b, nil
}
