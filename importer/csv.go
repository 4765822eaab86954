package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jmcleod/silentlock/vault"
)

// Column names accepted in a CSV header, per field. Chrome/Edge/Brave
// export "name,url,username,password,note"; Firefox exports
// "url,username,password,..." without a name column.
var csvColumns = map[string][]string{
	"name":     {"name", "title", "site_name"},
	"url":      {"url", "login_uri", "site_url", "website"},
	"username": {"username", "login_username", "user"},
	"password": {"password", "login_password"},
	"notes":    {"note", "notes", "comments"},
}

// ParseCSV reads a browser password-export CSV into candidates. The header
// row determines column positions; rows missing a name column fall back to
// the URL's host as the site name. Decrypting browser password stores is
// the exporting tool's job, not ours: this accepts only already-plaintext
// exports.
func ParseCSV(r io.Reader) ([]vault.Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		for field, aliases := range csvColumns {
			for _, alias := range aliases {
				if name == alias {
					cols[field] = i
				}
			}
		}
	}
	if _, ok := cols["url"]; !ok {
		return nil, fmt.Errorf("CSV header has no recognizable URL column")
	}
	if _, ok := cols["password"]; !ok {
		return nil, fmt.Errorf("CSV header has no recognizable password column")
	}

	rawField := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	field := func(row []string, name string) string {
		return strings.TrimSpace(rawField(row, name))
	}

	var batch []vault.Candidate
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		cand := vault.Candidate{
			SiteName: field(row, "name"),
			SiteURL:  field(row, "url"),
			Username: field(row, "username"),
			Password: rawField(row, "password"),
			Notes:    field(row, "notes"),
			Source:   vault.SourceImported,
		}
		if cand.SiteName == "" {
			cand.SiteName = vault.NormalizeSiteURL(cand.SiteURL)
		}
		batch = append(batch, cand)
	}
	return batch, nil
}
