package output

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/educenso/parser"
	"github.com/zalepa/educenso/series"
)

var motives = []parser.Record{
	{Year: 2019, Category: "Não tinha interesse; em estudar", Sex: "Masculino", AgeBand: "15 a 17 anos", Percentage: "3.00"},
	{Year: 2019, Category: "Não tinha interesse; em estudar", Sex: "Feminino", AgeBand: "25 a 29 anos", Percentage: "0.80"},
	{Year: 2023, Category: "Trabalhava", Sex: "Masculino", AgeBand: "18 a 24 anos", Percentage: "12.35"},
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", MotivesFile)
	require.NoError(t, WriteCSV(path, motives))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data),
		"ano;motivo;sexo;faixa_etaria;percentual\r\n"+
			"2019;\"Não tinha interesse; em estudar\";Masculino;15 a 17 anos;3.00\r\n"), string(data))

	got, err := ReadMotives(path)
	require.NoError(t, err)
	assert.Equal(t, motives, got)
}

func TestWriteCSV_SeriesHeaders(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file    string
		records any
		header  string
	}{
		{RendimentoFile, []series.RendimentoRecord{{Year: "2024", UF: "BA"}},
			"ano;regiao;uf;dependencia;nivel;taxa_aprovacao;taxa_reprovacao;taxa_abandono\r\n"},
		{DistorcaoFile, []series.DistorcaoRecord{{Year: "2024", UF: "BA"}},
			"ano;regiao;uf;dependencia;nivel;taxa_distorcao\r\n"},
		{AnalfabetismoFile, []series.AnalfabetismoRecord{{Year: "2024", UF: "BA"}},
			"ano;regiao;uf;taxa_analfabetismo\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, WriteCSV(path, tt.records))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.header)
		})
	}
}

func TestReadMotives_Missing(t *testing.T) {
	_, err := ReadMotives(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_ReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "educenso.db")

	s, err := OpenStore(path)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.ReplaceMotives(ctx, motives))
		require.NoError(t, s.ReplaceRendimento(ctx, []series.RendimentoRecord{
			{Year: "2024", Region: "Nordeste", UF: "BA", Dependency: "Pública", Level: series.LevelFundamental, Approval: "92.50", Failure: "4.50", Dropout: "3.00"},
		}))
		require.NoError(t, s.ReplaceDistorcao(ctx, []series.DistorcaoRecord{
			{Year: "2024", Region: "Sul", UF: "RS", Dependency: "Estadual", Level: series.LevelMedio, Distortion: "25.75"},
		}))
		require.NoError(t, s.ReplaceAnalfabetismo(ctx, []series.AnalfabetismoRecord{
			{Year: "2022", Region: "Sul", UF: "PR", Rate: "2.95"},
			{Year: "2022", Region: "Sul", UF: "RS", Rate: "2.95"},
		}))
	}

	for table, want := range map[string]int{"motivos": 3, "rendimento": 1, "distorcao": 1, "analfabetismo": 2} {
		n, err := s.Count(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, want, n, table)
	}

	got, err := s.Motives(ctx)
	require.NoError(t, err)
	assert.Equal(t, motives, got)

	require.NoError(t, s.ReplaceMotives(ctx, motives[:1]))
	n, err := s.Count(ctx, "motivos")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Count(ctx, "motivos; DROP TABLE motivos")
	assert.Error(t, err)
}
