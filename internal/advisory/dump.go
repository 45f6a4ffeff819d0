package advisory

import (
	"fmt"
	"io"
)

// WriteDump renders advisories as newline-delimited, protobuf-text-format
// style blocks (spec §6), in the order given — the registry's own
// registration order is expected to be preserved by the caller.
func WriteDump(w io.Writer, advisories []Advisory) error {
	for _, a := range advisories {
		if _, err := fmt.Fprintf(w, "main_id {\n  publisher: %q\n  value: %q\n}\n", a.MainID.Publisher, a.MainID.Value); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "severity: %q\n", a.Severity); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "title: %q\n", a.Title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "description: %q\n", a.Description); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
