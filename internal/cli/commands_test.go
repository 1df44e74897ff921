package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/chamada/internal/application"
	"github.com/example/chamada/internal/importer"
	"github.com/example/chamada/internal/testfixtures"
)

func TestStudentsCommand(t *testing.T) {
	h := testfixtures.NewStoreHarness(t)
	seedRoster(t, h)

	t.Run("json lists sorted by name", func(t *testing.T) {
		res := runCLI(t, h, "students", "--format", "json")
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)

		status, data, _ := decodeEnvelope[studentsResult](t, res.Stdout)
		assert.Equal(t, "ok", status)
		assert.Equal(t, 6, data.Total)
		names := make([]string, 0, len(data.Students))
		for _, s := range data.Students {
			names = append(names, s.Nome)
		}
		assert.Equal(t, []string{"Ana", "Bia", "Caio", "davi", "Érica", "Zeca"}, names)
	})

	t.Run("filters combine", func(t *testing.T) {
		res := runCLI(t, h, "students", "--format", "json", "--curso", "DSM", "--periodo", "1")
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)

		_, data, _ := decodeEnvelope[studentsResult](t, res.Stdout)
		require.Len(t, data.Students, 2)
		assert.Equal(t, "Ana", data.Students[0].Nome)
		assert.Equal(t, "Bia", data.Students[1].Nome)
	})

	t.Run("text table", func(t *testing.T) {
		res := runCLI(t, h, "students", "--search", "ÉRI")
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)

		assert.Contains(t, res.Stdout, "NOME")
		assert.Contains(t, res.Stdout, "Érica")
		assert.NotContains(t, res.Stdout, "Zeca")
		assert.Contains(t, res.Stdout, "1 de 6 alunos")
	})

	t.Run("no match", func(t *testing.T) {
		res := runCLI(t, h, "students", "--curso", "XYZ")
		require.Equal(t, ExitSuccess, res.Code)
		assert.Contains(t, res.Stdout, "Nenhum aluno encontrado.")
	})
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "alunos.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
		{"RA": "10", "Nome": "Nova", "Curso": "ads", "Periodo": "3"},
		{"ra": "11", "nome": ""}
	]`), 0o644))

	t.Run("json file", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		seedRoster(t, h)

		res := runCLI(t, h, "import", jsonPath, "--format", "json")
		require.Equal(t, ExitSuccess, res.Code, res.Stdout+res.Stderr)

		_, result, _ := decodeEnvelope[importer.Result](t, res.Stdout)
		assert.Equal(t, importer.Result{Rows: 2, Processed: 1, DirectorySize: 7}, result)
		assert.Equal(t, "Nova", h.Store.StudentName("10"))
		assert.Equal(t, "RA:11", h.Store.StudentName("11"))
	})

	t.Run("csv text output", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		csvPath := filepath.Join(dir, "turma.csv")
		require.NoError(t, os.WriteFile(csvPath, []byte("ra;nome;curso;turma\n1;Ana;dsm;2\n2;Bia;dsm;2\n"), 0o644))

		res := runCLI(t, h, "import", csvPath)
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)
		assert.Contains(t, res.Stdout, "2 alunos processados.")
		assert.Equal(t, 2, h.Store.StudentCount())
	})

	t.Run("xlsx workbook", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		book := excelize.NewFile()
		sheet := book.GetSheetName(0)
		require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"RA", "Aluno", "Curso", "Turma"}))
		require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{12, "Lia", "ads", 4}))
		xlsxPath := filepath.Join(dir, "turma.xlsx")
		require.NoError(t, book.SaveAs(xlsxPath))
		require.NoError(t, book.Close())

		res := runCLI(t, h, "import", xlsxPath)
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)
		assert.Contains(t, res.Stdout, "1 alunos processados.")
		got := h.Store.QueryStudents(application.StudentFilter{})
		require.Len(t, got, 1)
		assert.Equal(t, application.Student{RA: "12", Nome: "Lia", Curso: "ADS", Periodo: "4"}, got[0])
	})

	t.Run("format flag overrides extension", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		txtPath := filepath.Join(dir, "export.txt")
		require.NoError(t, os.WriteFile(txtPath, []byte("ra,nome\n7,Gil\n"), 0o644))

		res := runCLI(t, h, "import", txtPath, "--input-format", "csv")
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)
		assert.Equal(t, "Gil", h.Store.StudentName("7"))
	})

	tests := []struct {
		name string
		args []string
		file string
		body string
		code int
	}{
		{name: "unsupported extension", file: "alunos.xls", body: "x", code: ExitCommandError},
		{name: "broken workbook", file: "alunos.xlsx", body: "x", code: ExitFailure},
		{name: "unknown input format", file: "alunos.json", body: "[]", args: []string{"--input-format", "xml"}, code: ExitCommandError},
		{name: "malformed json", file: "ruim.json", body: "{not json", code: ExitFailure},
		{name: "stdin needs format", code: ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testfixtures.NewStoreHarness(t)
			path := "-"
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), tt.file)
				require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			}

			res := runCLI(t, h, append([]string{"import", path}, tt.args...)...)
			assert.Equal(t, tt.code, res.Code, res.Stderr)
			assert.Zero(t, h.Store.StudentCount())
		})
	}

	t.Run("missing file", func(t *testing.T) {
		h := testfixtures.NewStoreHarness(t)
		res := runCLI(t, h, "import", filepath.Join(dir, "nope.json"))
		assert.Equal(t, ExitCommandError, res.Code)
		assert.Contains(t, res.Stderr, "arquivo não encontrado")
	})
}

func TestHistoryCommand(t *testing.T) {
	h := testfixtures.NewStoreHarness(t)
	seedRoster(t, h)
	first := seedSession(t, h, testfixtures.Entrada("2024-01-10", "DSM", "1", "1", "2"))
	second := seedSession(t, h, testfixtures.Saida("2024-01-11", "DSM", "2", "3"))

	t.Run("newest recorded first", func(t *testing.T) {
		res := runCLI(t, h, "history", "--format", "json")
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)

		_, sessions, _ := decodeEnvelope[[]sessionView](t, res.Stdout)
		require.Len(t, sessions, 2)
		assert.Equal(t, second, sessions[0].ID)
		assert.Equal(t, first, sessions[1].ID)
		assert.Equal(t, []string{"1", "2"}, sessions[1].PresentRAs)
		require.Len(t, sessions[1].Logs, 1)
		assert.Equal(t, "Created", sessions[1].Logs[0].Action)
	})

	t.Run("period filter", func(t *testing.T) {
		res := runCLI(t, h, "history", "--format", "json", "--period", "2")
		require.Equal(t, ExitSuccess, res.Code)

		_, sessions, _ := decodeEnvelope[[]sessionView](t, res.Stdout)
		require.Len(t, sessions, 1)
		assert.Equal(t, "Saída", sessions[0].Type)
	})

	t.Run("search by displayed date", func(t *testing.T) {
		res := runCLI(t, h, "history", "--search", "10/01/2024")
		require.Equal(t, ExitSuccess, res.Code)

		assert.Contains(t, res.Stdout, "10/01/2024")
		assert.Contains(t, res.Stdout, "DSM 1")
		assert.NotContains(t, res.Stdout, "11/01/2024")
	})

	t.Run("empty", func(t *testing.T) {
		res := runCLI(t, h, "history", "--period", "99")
		require.Equal(t, ExitSuccess, res.Code)
		assert.Contains(t, res.Stdout, "Nenhuma chamada encontrada.")
	})
}

func TestExportCommand(t *testing.T) {
	h := testfixtures.NewStoreHarness(t)
	seedRoster(t, h)
	id := seedSession(t, h, testfixtures.Entrada("2024-01-10", "DSM", "1", "2", "1"))
	idArg := strconv.FormatInt(id, 10)
	wantText := "Lista de Presença - DSM 1 - 10/01/2024\nTipo: Entrada\nTotal: 2\n----------------\nBia\nAna"

	t.Run("prints the list", func(t *testing.T) {
		res := runCLI(t, h, "export", idArg)
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)
		assert.Equal(t, wantText+"\n", res.Stdout)
	})

	t.Run("writes into a directory", func(t *testing.T) {
		dir := t.TempDir()
		res := runCLI(t, h, "export", idArg, "--out", dir, "--format", "json")
		require.Equal(t, ExitSuccess, res.Code, res.Stderr)

		_, result, _ := decodeEnvelope[exportResult](t, res.Stdout)
		assert.Equal(t, "Lista_DSM_1_10-01-2024.txt", result.FileName)
		assert.Equal(t, filepath.Join(dir, result.FileName), result.Path)

		content, err := os.ReadFile(result.Path)
		require.NoError(t, err)
		assert.Equal(t, wantText, string(content))
	})

	t.Run("unknown session", func(t *testing.T) {
		res := runCLI(t, h, "export", "999", "--format", "json")
		assert.Equal(t, ExitFailure, res.Code)

		_, _, cliErr := decodeEnvelope[any](t, res.Stdout)
		require.NotNil(t, cliErr)
		assert.Equal(t, "not_found", cliErr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		res := runCLI(t, h, "export", "abc")
		assert.Equal(t, ExitCommandError, res.Code)
		assert.Contains(t, res.Stderr, "id de chamada inválido")
	})
}

func TestClearCommand(t *testing.T) {
	h := testfixtures.NewStoreHarness(t)
	seedRoster(t, h)
	seedSession(t, h, testfixtures.Entrada("2024-01-10", "DSM", "1", "1"))

	res := runCLI(t, h, "clear")
	require.Equal(t, ExitCommandError, res.Code)
	assert.Equal(t, 6, h.Store.StudentCount())

	res = runCLI(t, h, "clear", "--yes")
	require.Equal(t, ExitSuccess, res.Code, res.Stderr)
	assert.Contains(t, res.Stdout, "Cadastro apagado.")
	assert.Zero(t, h.Store.StudentCount())
	assert.Empty(t, h.Store.QuerySessions(application.SessionFilter{}))
}
