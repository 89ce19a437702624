package faq

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faqbot/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insurance_faq.csv")
	writeFile(t, path, "Question,Answer\n"+
		"What is a deductible?,A deductible is the amount you pay before insurance coverage begins.\n"+
		",\n"+
		"What is coinsurance?,\"Your share of costs, after the deductible.\"\n")

	docs, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "faq_0", docs[0].ID)
	assert.Equal(t, "Q: What is a deductible?\nA: A deductible is the amount you pay before insurance coverage begins.", docs[0].Text)
	assert.Equal(t, "insurance_faq.csv", docs[0].Source)
	// Blank row 1 is skipped but row numbering is kept.
	assert.Equal(t, "faq_2", docs[1].ID)
	assert.Contains(t, docs[1].Text, "after the deductible")
}

func TestLoadCSV_ColumnVariants(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faq.csv")
	writeFile(t, path, "id, Customer Question ,Short Answer\n1,What is a copay?,A fixed fee.\n")

	docs, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Q: What is a copay?\nA: A fixed fee.", docs[0].Text)
}

func TestLoadCSV_SchemaError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faq.csv")
	writeFile(t, path, "prompt,response\nhi,there\n")

	_, err := LoadCSV(path)
	require.Error(t, err)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"prompt", "response"}, schemaErr.Found)
	assert.Equal(t, []string{"question", "answer"}, schemaErr.Expected)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_medicare.md"), "# Medicare\nPart B covers outpatient care.")
	writeFile(t, filepath.Join(dir, "a_deductible.txt"), "A deductible is paid first.")
	writeFile(t, filepath.Join(dir, "ignored.pdf"), "binary")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.md"), 0o755))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "doc_a_deductible", docs[0].ID)
	assert.Equal(t, "a_deductible.txt", docs[0].Source)
	assert.Equal(t, "doc_b_medicare", docs[1].ID)
}

func TestLoadDir_SameStem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "deductibles.md"), "Deductibles explained.")
	writeFile(t, filepath.Join(dir, "deductibles.txt"), "Deductibles explained.")

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "doc_deductibles", docs[0].ID)
	assert.Equal(t, "doc_deductibles", docs[1].ID)
	assert.Equal(t, "deductibles.md", docs[0].Source)
	assert.Equal(t, "deductibles.txt", docs[1].Source)
}

func TestLoadDir_LargeFilesAndSymlinks(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("coverage ", 200_000)
	writeFile(t, filepath.Join(dir, "big.txt"), big)

	target := filepath.Join(t.TempDir(), "policy.md")
	writeFile(t, target, "Linked policy text.")
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "linked.md")))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "doc_big", docs[0].ID)
	assert.Len(t, docs[0].Text, len(big))
	assert.Equal(t, "doc_linked", docs[1].ID)
	assert.Equal(t, "Linked policy text.", docs[1].Text)
}

func TestLoad(t *testing.T) {
	t.Run("csv preferred over directory", func(t *testing.T) {
		dir := t.TempDir()
		csvPath := filepath.Join(dir, "faq.csv")
		docsDir := filepath.Join(dir, "docs")
		require.NoError(t, os.Mkdir(docsDir, 0o755))
		writeFile(t, csvPath, "question,answer\nq,a\n")
		writeFile(t, filepath.Join(docsDir, "x.txt"), "text")

		docs, err := Load(csvPath, docsDir)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "faq.csv", docs[0].Source)
	})

	t.Run("falls back to directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "x.txt"), "text")

		docs, err := Load(filepath.Join(dir, "missing.csv"), dir)
		require.NoError(t, err)
		require.Len(t, docs, 1)
	})

	t.Run("nothing found names both locations", func(t *testing.T) {
		dir := t.TempDir()
		csvPath := filepath.Join(dir, "missing.csv")
		docsDir := filepath.Join(dir, "missing")

		_, err := Load(csvPath, docsDir)

		var nf *domain.SourceNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.False(t, nf.Empty)
		assert.Equal(t, []string{csvPath, docsDir}, nf.Searched)
	})

	t.Run("empty source", func(t *testing.T) {
		dir := t.TempDir()
		csvPath := filepath.Join(dir, "faq.csv")
		writeFile(t, csvPath, "question,answer\n")

		_, err := Load(csvPath, "")

		var nf *domain.SourceNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.True(t, nf.Empty)
	})
}
