package iocli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestPrintlnPrintfWrite(t *testing.T) {
	var out bytes.Buffer
	stdio := New(strings.NewReader(""), &out)

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s", 1, "abc")
	n, err := stdio.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

func TestReadInput(t *testing.T) {
	var out bytes.Buffer
	stdio := New(strings.NewReader("  user input \nsecond"), &out)

	first, err := stdio.ReadInput("Prompt: ")
	require.NoError(t, err)
	assert.Equal(t, "user input", first)

	// последняя строка без перевода строки
	second, err := stdio.ReadInput("Again: ")
	require.NoError(t, err)
	assert.Equal(t, "second", second)

	_, err = stdio.ReadInput("Empty: ")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "Prompt: Again: Empty: ", out.String())
}

// Пароль из pipe читается построчно, без обращения к терминалу
func TestReadPassword_Piped(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	go func() {
		_, _ = w.Write([]byte("s3cret\n"))
		_ = w.Close()
	}()

	var out bytes.Buffer
	stdio := New(r, &out)

	pw, err := stdio.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "Password: ", out.String())
}
