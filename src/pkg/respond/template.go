package respond

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"entropy/local-app/src/pkg/util"
)

var keywordReplies = []struct {
	keywords []string
	reply    string
}{
	{[]string{"hello", "hi"}, "Hello! What idea would you like to explore today? Highlight any part of my answers to branch off into a new thread."},
	{[]string{"branch"}, "Branching lets you follow a side idea without losing the main conversation. Select some text in a reply and branch from it; the new thread shows up as a sticky on the mindmap."},
	{[]string{"sticky"}, "Stickies are the canvas view of your threads. Move them around, stack related ones together and open the minimap to keep your bearings."},
	{[]string{"help"}, "You can chat here, branch from any message, switch threads, and arrange stickies on the mindmap. Type 'help' in the shell for the full command list."},
	{[]string{"idea"}, "Let's pull that idea apart. What problem does it solve, who is it for, and what would the smallest experiment look like?"},
}

var fallbackReplies = []string{
	"That's an interesting angle on %q. What led you there?",
	"Thinking about %q: there are a few directions worth branching into. Which one feels most promising?",
	"Here's a thought on %q. Try breaking it into smaller questions and branch on each one.",
	"%q connects to several earlier points. Want to open a sticky and explore it separately?",
}

// TemplateResponder answers from canned templates after a simulated delay.
type TemplateResponder struct {
	Delay time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewTemplateResponder returns a template responder waiting delay before each reply.
func NewTemplateResponder(delay time.Duration) *TemplateResponder {
	return &TemplateResponder{Delay: delay, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *TemplateResponder) Respond(ctx context.Context, req Request) (string, error) {
	if err := sleep(ctx, r.Delay); err != nil {
		return "", err
	}
	return r.reply(req.LastUserMessage()), nil
}

func (r *TemplateResponder) reply(input string) string {
	words := strings.FieldsFunc(strings.ToLower(input), func(c rune) bool {
		return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
	})
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[w] = true
	}
	for _, kr := range keywordReplies {
		for _, k := range kr.keywords {
			if seen[k] {
				return kr.reply
			}
		}
	}

	r.mu.Lock()
	tmpl := fallbackReplies[r.rnd.Intn(len(fallbackReplies))]
	r.mu.Unlock()
	return fmt.Sprintf(tmpl, util.TruncateText(strings.TrimSpace(input), 60))
}

var stickyReplies = []string{
	"Good point. How does this relate to the rest of the mindmap?",
	"Noted on this sticky. Want to stack it with a related one?",
	"Interesting. This could be worth its own branch.",
	"Let's keep digging here. What's the next question?",
	"Captured. Try linking this to the main thread when it's ready.",
}

// RandomResponder picks a reply uniformly from a fixed set. It backs sticky chats.
type RandomResponder struct {
	Delay   time.Duration
	Replies []string

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomResponder returns a RandomResponder over the default sticky replies.
func NewRandomResponder(delay time.Duration) *RandomResponder {
	return &RandomResponder{
		Delay:   delay,
		Replies: stickyReplies,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RandomResponder) Respond(ctx context.Context, _ Request) (string, error) {
	if err := sleep(ctx, r.Delay); err != nil {
		return "", err
	}
	if len(r.Replies) == 0 {
		return "", ErrEmptyReply
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Replies[r.rnd.Intn(len(r.Replies))], nil
}
