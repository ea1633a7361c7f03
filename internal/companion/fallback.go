package companion

import (
	"math/rand"
	"strings"
	"time"

	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
)

// triggerGroup binds topic keywords to a canned reply set. Groups are
// scanned in declaration order and the first hit short-circuits, so the
// slice below is the priority table: distress outranks everything, and
// anxiety outranks work ("anxious about my job" resolves to anxiety).
type triggerGroup struct {
	name     string
	triggers []string
	replies  []string
}

var triggerGroups = []triggerGroup{
	{
		name:     "distress",
		triggers: []string{"sad", "depressed", "hurt", "crying", "cried", "awful", "terrible", "lonely", "heartbroken", "难过", "伤心"},
		replies: []string{
			"That sounds really heavy. I'm here with you — do you want to tell me more about what happened?",
			"I'm sorry today has been so hard. What part of it is weighing on you the most?",
			"It takes courage to say that out loud. What would feel even a little comforting right now?",
			"You don't have to carry that alone. When did you first start feeling this way today?",
		},
	},
	{
		name:     "joy",
		triggers: []string{"happy", "great", "wonderful", "amazing", "excited", "fantastic", "laughed", "开心", "太棒了"},
		replies: []string{
			"I love hearing that! What made this moment feel so good?",
			"That's wonderful. How did you celebrate, even in a small way?",
			"Your joy comes through clearly. What do you want to remember about today?",
			"That sounds like a bright spot worth keeping. Who shared it with you?",
		},
	},
	{
		name:     "anxiety",
		triggers: []string{"anxious", "worried", "nervous", "stressed", "overwhelmed", "scared", "panic", "焦虑", "紧张"},
		replies: []string{
			"That sounds stressful. What feels like the biggest source of the worry right now?",
			"It's okay to feel anxious. If the worry had a voice, what would it be saying?",
			"Let's slow down together. What's one small thing that is still within your control?",
			"Thank you for naming it. Has anything helped you through moments like this before?",
		},
	},
	{
		name:     "gratitude",
		triggers: []string{"grateful", "thankful", "appreciate", "blessed", "thanks", "感谢", "感恩"},
		replies: []string{
			"Gratitude looks good on you. What else, however small, are you thankful for today?",
			"That's a lovely thing to notice. How did it change the shape of your day?",
			"Holding onto moments like that matters. Do you want to describe it in more detail?",
		},
	},
	{
		name:     "work",
		triggers: []string{"work", "job", "boss", "meeting", "deadline", "project", "interview", "colleague", "工作", "面试"},
		replies: []string{
			"Work takes up so much of our days. How did today's part of it leave you feeling?",
			"That sounds demanding. What went better than you expected, if anything?",
			"How do you want to leave work at work tonight?",
		},
	},
	{
		name:     "relationship",
		triggers: []string{"friend", "family", "partner", "mom", "dad", "boyfriend", "girlfriend", "argument", "朋友", "家人"},
		replies: []string{
			"Relationships shape so much of how a day feels. What happened between you two?",
			"That connection clearly matters to you. What do you wish they understood?",
			"How did that interaction leave you feeling about yourself?",
		},
	},
}

var genericReplies = []string{
	"Tell me more about that — what stood out to you most?",
	"How did that make you feel, in the moment and now?",
	"What's been on your mind the most today?",
	"If today had a color or a weather, what would it be?",
	"What's one small detail from today you don't want to forget?",
}

// Engine produces local companion output when no remote model is available.
// The random source is injected so tests can pin the selection.
type Engine struct {
	rng *rand.Rand
}

// NewEngine builds an engine over the given source. A nil source falls back
// to a time-seeded one for production use.
func NewEngine(src rand.Source) *Engine {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Engine{rng: rand.New(src)}
}

// Reply picks a canned response for the user's latest message. The history
// argument mirrors the remote path's signature but does not influence the
// choice today; local replies are driven by the latest turn alone.
func (e *Engine) Reply(userMessage string, history []chat.Message) string {
	_ = history

	normalized := strings.ToLower(userMessage)
	for _, group := range triggerGroups {
		for _, trigger := range group.triggers {
			if strings.Contains(normalized, trigger) {
				return e.pick(group.replies)
			}
		}
	}
	return e.pick(genericReplies)
}

func (e *Engine) pick(set []string) string {
	return set[e.rng.Intn(len(set))]
}
