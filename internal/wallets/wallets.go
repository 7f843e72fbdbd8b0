package wallets

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Wallet es una dirección tracked con una etiqueta opcional.
type Wallet struct {
	Address string
	Label   string
}

// Load lee el CSV de wallets tracked: una wallet por línea, con la
// dirección en la primera columna y una etiqueta opcional en la segunda.
// Las líneas que empiezan por # se ignoran. Las direcciones se normalizan
// a lowercase y se deduplican conservando la primera etiqueta.
func Load(path string) ([]Wallet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wallets.Load: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // la etiqueta es opcional
	r.TrimLeadingSpace = true
	r.Comment = '#'

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("wallets.Load: parse %q: %w", path, err)
	}

	seen := make(map[string]struct{}, len(records))
	wallets := make([]Wallet, 0, len(records))
	for i, rec := range records {
		addr := strings.ToLower(strings.TrimSpace(rec[0]))
		if addr == "" {
			continue
		}
		if !strings.HasPrefix(addr, "0x") {
			return nil, fmt.Errorf("wallets.Load: line %d: %q is not an address", i+1, rec[0])
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		w := Wallet{Address: addr}
		if len(rec) > 1 {
			w.Label = strings.TrimSpace(rec[1])
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// Addresses devuelve solo las direcciones, en el orden del archivo.
func Addresses(ws []Wallet) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Address
	}
	return out
}
