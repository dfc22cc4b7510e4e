/* bot_test.go
 * Contains unit tests for the Discord notifier
 */

package bot

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotifier_Validation(t *testing.T) {
	_, err := NewNotifier("", "123", nil)
	assert.Error(t, err)
	_, err = NewNotifier("token", "", nil)
	assert.Error(t, err)

	n, err := NewNotifier("token", "123", nil)
	require.NoError(t, err)
	assert.Equal(t, "123", n.ChannelID)
}

func TestSend_ShortDigest(t *testing.T) {
	session := NewMockDiscordSession()
	n := NewNotifierWithSession(session, "chan-1", nil)

	require.NoError(t, n.Send("Entry list updates for 2026-01-24\n\n- Doha: + Camila Osorio added (Main Draw)\n"))

	require.Len(t, session.SentMessages, 1)
	assert.Equal(t, "chan-1", session.SentMessages[0].ChannelID)
	assert.Equal(t, "Entry list updates for 2026-01-24\n\n- Doha: + Camila Osorio added (Main Draw)", session.SentMessages[0].Content)
}

func TestSend_EmptyDigest(t *testing.T) {
	session := NewMockDiscordSession()
	n := NewNotifierWithSession(session, "chan-1", nil)

	require.NoError(t, n.Send("  \n"))
	assert.Empty(t, session.SentMessages)
}

// TestSend_LongDigest tests that a long digest is split on line breaks without losing lines
func TestSend_LongDigest(t *testing.T) {
	var lines []string
	for i := 0; i < 120; i++ {
		lines = append(lines, fmt.Sprintf("- Tournament %03d: + Player Number %03d added (Qualifying)", i, i))
	}
	digest := strings.Join(lines, "\n")

	session := NewMockDiscordSession()
	require.NoError(t, NewNotifierWithSession(session, "chan-1", nil).Send(digest))

	require.Greater(t, len(session.SentMessages), 1)
	for _, msg := range session.Contents() {
		assert.LessOrEqual(t, utf8.RuneCountInString(msg), MaxMessageLength)
		assert.False(t, strings.HasPrefix(msg, "\n"))
	}
	assert.Equal(t, digest, strings.Join(session.Contents(), "\n"))
}

func TestSend_StopsOnError(t *testing.T) {
	session := NewMockDiscordSession()
	session.ErrorToReturn = errors.New("rate limited")
	session.FailAfter = 1

	digest := strings.Repeat("x", 1500) + "\n" + strings.Repeat("y", 1500) + "\n" + strings.Repeat("z", 600)
	err := NewNotifierWithSession(session, "chan-1", nil).Send(digest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "part 2 of 3")
	assert.Len(t, session.SentMessages, 1)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"abc"}, SplitMessage("abc\n", 10))
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, SplitMessage("aaaa\nbbbb\ncccc", 10))
	// An over long line is cut, by characters not bytes
	assert.Equal(t, []string{"ééééé", "ééé", "ok"}, SplitMessage("éééééééé\nok", 5))
}
