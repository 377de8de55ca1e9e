package middleware

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncateBodyShortPassthrough(t *testing.T) {
	require.Equal(t, "hello", truncateBody("hello"))
	require.Equal(t, "", truncateBody(""))
}

func TestTruncateBodyCutsOnRuneBoundary(t *testing.T) {
	// 每个汉字 3 字节，2048 不是 3 的倍数，按字节硬切必然切坏字符
	body := strings.Repeat("库", maxLoggedBodyLen)
	got := truncateBody(body)

	require.True(t, strings.HasSuffix(got, "…(truncated)"))
	require.True(t, utf8.ValidString(got))
	require.LessOrEqual(t, len(got)-len("…(truncated)"), maxLoggedBodyLen)
}
