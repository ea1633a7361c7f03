package companion

import (
	"strings"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
)

// emotionPhrases maps each classifier label to the prose fragment woven
// into the diary narrative.
var emotionPhrases = map[emotion.Label]string{
	emotion.Joy:         "There was a lightness in me today that I don't want to let slip away.",
	emotion.Gratitude:   "More than anything, today left me feeling thankful.",
	emotion.Calm:        "A quiet steadiness carried me through the day.",
	emotion.Melancholy:  "A soft sadness sat with me for much of the day.",
	emotion.Anxiety:     "My mind kept circling its worries, and I'm learning to notice that.",
	emotion.Excitement:  "I could feel the anticipation humming under everything I did.",
	emotion.Reflection:  "Today felt like a day for turning things over slowly in my mind.",
	emotion.Hope:        "Something about today made tomorrow feel a little brighter.",
	emotion.Nostalgia:   "Old memories kept surfacing, tender and familiar.",
	emotion.Contentment: "Nothing extraordinary happened, and that was exactly enough.",
}

var reflectionFragments = []string{
	"I took some time to sit with my thoughts",
	"the day unfolded in ways I didn't expect",
	"I found myself noticing the small moments",
	"I talked through what's been on my mind",
	"I let myself slow down for once",
}

var themeFragments = []string{
	"being gentle with myself",
	"noticing what I can and can't control",
	"staying present",
	"letting things take the time they take",
	"making room for what matters",
}

// Fixed filler text for the remaining template slots.
const (
	insightFiller      = "Writing it down makes it feel more manageable somehow."
	gratitudeFiller    = "I'm grateful for the quiet spaces between the busy parts."
	lessonFiller       = "feelings pass through more easily when I name them"
	futureFiller       = "Tomorrow I want to meet whatever comes with a little more patience."
	appreciationFiller = "I'm glad I paused long enough to notice any of it."
	peaceFiller        = "For now, I can let the day rest."
	beautyFiller       = "Even the ordinary parts had their own kind of beauty."
	wisdomFiller       = "Days like this remind me that nothing has to be resolved all at once."
)

var narrativeTemplates = []string{
	"Today, {reflection}. {emotionPhrase} {insight} I keep coming back to {theme}, and I want to remember that {lesson}. {future}",
	"{emotionPhrase} Looking back, {reflection}, and much of it circled around {theme}. {gratitude} {peace}",
	"This evening I realized {reflection} today. {emotionPhrase} {beauty} I'm learning that {lesson}. {appreciation}",
	"{emotionPhrase} Today, {reflection}, mostly about {theme}. {wisdom} {future}",
}

// Diary compiles a first-person narrative from a conversation transcript.
// Total: for any input, including an empty transcript, it returns a
// non-empty paragraph with every template slot resolved.
func (e *Engine) Diary(messages []chat.Message) string {
	userText := chat.UserText(messages)
	mood := emotion.Classify(userText)

	template := e.pick(narrativeTemplates)
	replacer := strings.NewReplacer(
		"{reflection}", e.pick(reflectionFragments),
		"{emotionPhrase}", emotionPhrases[mood.Primary],
		"{theme}", e.pick(themeFragments),
		"{insight}", insightFiller,
		"{gratitude}", gratitudeFiller,
		"{lesson}", lessonFiller,
		"{future}", futureFiller,
		"{appreciation}", appreciationFiller,
		"{peace}", peaceFiller,
		"{beauty}", beautyFiller,
		"{wisdom}", wisdomFiller,
	)
	return replacer.Replace(template)
}
