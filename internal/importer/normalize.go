package importer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/example/chamada/internal/application"
)

// Column aliases, matched against lower-cased headers.
var (
	raAliases      = []string{"ra", "id"}
	nomeAliases    = []string{"nome", "name", "aluno"}
	cursoAliases   = []string{"curso"}
	periodoAliases = []string{"periodo", "turma"}
)

// Defaults applied to missing columns. Rows left with PlaceholderName are
// dropped.
const (
	PlaceholderName = "Sem Nome"
	DefaultCurso    = "DSM"
	DefaultPeriodo  = "1"
)

// SyntheticRA returns a random 9 character registration number for rows
// that carry none.
func SyntheticRA() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// Normalize maps rows to students. Missing or empty values fall back to the
// defaults, course codes are upper-cased, and rows without a name are
// skipped. newRA may be nil to use SyntheticRA.
func Normalize(rows []Row, newRA func() string) []application.Student {
	if newRA == nil {
		newRA = SyntheticRA
	}
	out := make([]application.Student, 0, len(rows))
	for _, row := range rows {
		st := application.Student{
			RA:      valueOr(row.lookup(raAliases...), ""),
			Nome:    valueOr(row.lookup(nomeAliases...), PlaceholderName),
			Curso:   strings.ToUpper(valueOr(row.lookup(cursoAliases...), DefaultCurso)),
			Periodo: valueOr(row.lookup(periodoAliases...), DefaultPeriodo),
		}
		if st.Nome == PlaceholderName {
			continue
		}
		if st.RA == "" {
			st.RA = newRA()
		}
		out = append(out, st)
	}
	return out
}

// valueOr renders v as trimmed text, returning fallback for values a
// spreadsheet export leaves empty: null, "", false and zero.
func valueOr(v any, fallback string) string {
	text, ok := render(v)
	if !ok {
		return fallback
	}
	if text = strings.TrimSpace(text); text == "" {
		return fallback
	}
	return text
}

func render(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		return "true", val
	case json.Number:
		return renderNumber(val)
	case float64:
		return renderNumber(json.Number(strconv.FormatFloat(val, 'f', -1, 64)))
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val), true
		}
		return string(encoded), true
	}
}

// renderNumber drops a redundant fraction ("1.0" becomes "1") while keeping
// integers wider than float64 precision verbatim.
func renderNumber(n json.Number) (string, bool) {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), i != 0
	}
	f, err := n.Float64()
	if err != nil {
		return n.String(), true
	}
	if f == 0 {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return n.String(), true
}
