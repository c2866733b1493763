package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/Poutchouli/SharedMailbox-editor/internal/ingest"
	"github.com/Poutchouli/SharedMailbox-editor/internal/script"
	"github.com/Poutchouli/SharedMailbox-editor/internal/util/atomicwrite"
)

func csvOptions(sep string) (ingest.Options, error) {
	if utf8.RuneCountInString(sep) != 1 {
		return ingest.Options{}, fmt.Errorf("--separator debe ser un solo carácter, no %q", sep)
	}
	r, _ := utf8.DecodeRuneInString(sep)
	return ingest.Options{Separator: r}, nil
}

// readOperations lee un .json (lista de operaciones o {"operations": [...]})
// o un .csv exportado de Exchange, cuyas filas toman la acción dada.
func readOperations(path string, action script.Action, sep string) ([]script.Operation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeOperations(raw)
	case ".csv":
		if !action.Valid() {
			return nil, fmt.Errorf("--action inválida %q (add|remove)", action)
		}
		opts, err := csvOptions(sep)
		if err != nil {
			return nil, err
		}
		res, err := ingest.Parse(raw, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return recordsToOperations(res.Records, action.Normalize()), nil
	default:
		return nil, fmt.Errorf("%s: extensión no soportada (usar .csv o .json)", path)
	}
}

func decodeOperations(raw []byte) ([]script.Operation, error) {
	var list script.Operations
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Operations script.Operations `json:"operations"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("json de operaciones inválido: %w", err)
	}
	return wrapped.Operations, nil
}

func recordsToOperations(records []ingest.Record, action script.Action) []script.Operation {
	ops := make([]script.Operation, 0, len(records))
	for _, rec := range records {
		ops = append(ops, script.Operation{
			MailboxIdentity: rec.Identity,
			UserToModify:    rec.User,
			ActionType:      action,
			AccessRights:    script.ParseRights(rec.AccessRights),
		})
	}
	return ops
}

func printIngest(w io.Writer, out string, res *ingest.Result) error {
	if out == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"encoding": res.Encoding,
			"skipped":  res.Skipped,
			"missing":  res.Missing,
			"records":  res.Records,
		})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IDENTITY\tUSER\tACCESS RIGHTS")
	for _, r := range res.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Identity, r.User, r.AccessRights)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d filas, encoding=%s, descartadas=%d\n", len(res.Records), res.Encoding, res.Skipped)
	if len(res.Missing) > 0 {
		fmt.Fprintf(w, "columnas ausentes: %s\n", strings.Join(res.Missing, ", "))
	}
	return nil
}

// writeScript escribe el script en outPath (o stdout) y el resumen en errw,
// para que stdout quede limpio al redirigir. Con --out json el resumen va a
// stdout como JSON; si hay outPath el script igual se escribe en el archivo.
func writeScript(w, errw io.Writer, out, outPath string, sc *script.Script) error {
	if outPath != "" {
		if err := atomicwrite.WriteFile(outPath, []byte(sc.Content), 0o600); err != nil {
			return err
		}
	}

	if out == "json" {
		doc := map[string]any{
			"script_content": sc.Content,
			"log_file":       sc.LogFile,
			"results":        sc.Results,
		}
		if outPath != "" {
			doc["output_file"] = outPath
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	if outPath == "" {
		if _, err := io.WriteString(w, sc.Content); err != nil {
			return err
		}
	}

	fmt.Fprintf(errw, "log: %s | aplicadas=%d mal formadas=%d reservadas=%d sin derechos conocidos=%d\n",
		sc.LogFile,
		sc.Count(script.StatusApplied),
		sc.Count(script.StatusMalformed),
		sc.Count(script.StatusReserved),
		sc.Count(script.StatusNoKnownRights),
	)
	return nil
}
