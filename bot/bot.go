/* bot.go
 * Contains the Discord notifier that posts a run's digest to a channel. Discord limits a message to 2000
 * characters, so longer digests are split on line breaks into several messages
 */

package bot

import (
	"strings"
	"unicode/utf8"

	"entrylist-tracker/logging"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// MaxMessageLength is Discord's limit for a message's content
const MaxMessageLength = 2000

type Notifier struct {
	Session   DiscordSession
	ChannelID string
	Logger    *logging.Logger
}

// NewNotifier creates a notifier posting with a bot token. The session only uses the REST api, so no gateway
// connection is opened
func NewNotifier(botToken string, channelID string, logger *logging.Logger) (*Notifier, error) {
	if botToken == "" || channelID == "" {
		return nil, errors.New("bot token and channel id are required")
	}

	discord, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, errors.Wrap(err, "creating discord session")
	}
	return NewNotifierWithSession(discord, channelID, logger), nil
}

// NewNotifierWithSession creates a notifier on an existing session
func NewNotifierWithSession(session DiscordSession, channelID string, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Notifier{Session: session, ChannelID: channelID, Logger: logger.With("component", "discord")}
}

// Send posts the digest to the channel
// Preconditions: Receives the digest text. An empty digest sends nothing
// Postconditions: Posts the digest in as few messages as the length limit allows, stopping at the first failure
func (n *Notifier) Send(digest string) error {
	if strings.TrimSpace(digest) == "" {
		return nil
	}

	chunks := SplitMessage(digest, MaxMessageLength)
	for i, chunk := range chunks {
		if _, err := n.Session.ChannelMessageSend(n.ChannelID, chunk); err != nil {
			return errors.Wrapf(err, "sending digest part %d of %d", i+1, len(chunks))
		}
	}
	n.Logger.Info("digest sent", "channel", n.ChannelID, "messages", len(chunks))
	return nil
}

// SplitMessage splits text into pieces of at most limit characters, breaking between lines where possible.
// A single line longer than the limit is cut
func SplitMessage(text string, limit int) []string {
	text = strings.TrimRight(text, "\n")
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
		}

		lineLen := utf8.RuneCountInString(line)
		sep := 0
		if currentLen > 0 {
			sep = 1
		}
		if currentLen+sep+lineLen > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteString("\n")
		}
		current.WriteString(line)
		currentLen += sep + lineLen
	}
	flush()
	return chunks
}
