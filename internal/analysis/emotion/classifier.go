package emotion

import "strings"

// Label 表示日记条目可以携带的情绪标签。
type Label string

const (
	Joy         Label = "joy"
	Gratitude   Label = "gratitude"
	Calm        Label = "calm"
	Melancholy  Label = "melancholy"
	Anxiety     Label = "anxiety"
	Excitement  Label = "excitement"
	Reflection  Label = "reflection"
	Hope        Label = "hope"
	Nostalgia   Label = "nostalgia"
	Contentment Label = "contentment"
)

// Default is returned when no keyword matches, including empty input.
const Default = Reflection

// floorIntensity keeps the timeline rendering visible even for weak matches.
const floorIntensity = 0.3

// Emotion is the classification result: a primary label, a bounded
// intensity, and the display tokens the frontend paints with.
type Emotion struct {
	Primary   Label   `json:"primary"`
	Intensity float64 `json:"intensity"`
	Color     string  `json:"color"`
	Emoji     string  `json:"emoji"`
}

// bucket binds one label to its keyword set. Buckets are evaluated in
// declaration order and a strictly higher score is required to displace an
// earlier winner, so ties always resolve to the earliest-declared label.
type bucket struct {
	label    Label
	keywords []string
}

var lexicon = []bucket{
	{Joy, []string{
		"happy", "joy", "wonderful", "amazing", "laughed", "laugh", "smile", "fun",
		"great day", "so good", "delighted", "开心", "高兴", "快乐", "喜悦",
	}},
	{Gratitude, []string{
		"grateful", "thankful", "thank", "appreciate", "blessed", "lucky to have",
		"gratitude", "感谢", "感恩", "谢谢",
	}},
	{Calm, []string{
		"calm", "peaceful", "relaxed", "quiet", "serene", "at ease", "breathe",
		"平静", "放松", "安宁",
	}},
	{Melancholy, []string{
		"sad", "lonely", "miss", "down", "cried", "cry", "empty", "heartbroken",
		"blue", "grief", "难过", "伤心", "孤单", "失落",
	}},
	{Anxiety, []string{
		"anxious", "worried", "nervous", "stress", "stressed", "overwhelmed",
		"afraid", "scared", "panic", "焦虑", "担心", "紧张", "害怕",
	}},
	{Excitement, []string{
		"excited", "thrilled", "can't wait", "cant wait", "pumped", "amazing news",
		"finally", "兴奋", "期待", "激动",
	}},
	{Reflection, []string{
		"thinking about", "wonder", "realized", "looking back", "made me think",
		"reflect", "思考", "回顾", "反思",
	}},
	{Hope, []string{
		"hope", "hopeful", "looking forward", "tomorrow will", "better days",
		"optimistic", "希望", "盼望",
	}},
	{Nostalgia, []string{
		"remember when", "childhood", "used to", "old times", "back then",
		"memories", "怀念", "回忆", "小时候",
	}},
	{Contentment, []string{
		"content", "satisfied", "enough", "simple things", "cozy", "warm inside",
		"满足", "知足", "安稳",
	}},
}

var display = map[Label]struct {
	color string
	emoji string
}{
	Joy:         {"#FFD166", "😊"},
	Gratitude:   {"#F4A261", "🙏"},
	Calm:        {"#8ECAE6", "😌"},
	Melancholy:  {"#6C7A9C", "🌧️"},
	Anxiety:     {"#B5838D", "😟"},
	Excitement:  {"#EF476F", "🎉"},
	Reflection:  {"#A8DADC", "🤔"},
	Hope:        {"#90BE6D", "🌱"},
	Nostalgia:   {"#CDB4DB", "🍂"},
	Contentment: {"#E9C46A", "☕"},
}

// Classify maps free text to its dominant emotion. It is pure and total:
// any input, including the empty string, yields a label from the fixed set
// with intensity in [floorIntensity, 1].
func Classify(text string) Emotion {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return build(Default, 0)
	}

	best := Default
	bestScore := 0
	for _, b := range lexicon {
		score := 0
		for _, word := range b.keywords {
			score += strings.Count(normalized, word)
		}
		if score > bestScore {
			bestScore = score
			best = b.label
		}
	}

	return build(best, bestScore)
}

// Labels returns the fixed label set in priority order.
func Labels() []Label {
	out := make([]Label, 0, len(lexicon))
	for _, b := range lexicon {
		out = append(out, b.label)
	}
	return out
}

// For builds an Emotion for an externally supplied label, clamping the
// intensity into the valid range and filling in display metadata. Unknown
// labels collapse to the default.
func For(label Label, intensityVal float64) Emotion {
	if !Valid(label) {
		return build(Default, 0)
	}
	meta := display[label]
	if intensityVal < floorIntensity {
		intensityVal = floorIntensity
	}
	if intensityVal > 1 {
		intensityVal = 1
	}
	return Emotion{Primary: label, Intensity: intensityVal, Color: meta.color, Emoji: meta.emoji}
}

// Valid reports whether the label belongs to the fixed set.
func Valid(label Label) bool {
	_, ok := display[label]
	return ok
}

func build(label Label, score int) Emotion {
	meta := display[label]
	return Emotion{
		Primary:   label,
		Intensity: intensity(score),
		Color:     meta.color,
		Emoji:     meta.emoji,
	}
}

// intensity grows with the match count but never leaves [floorIntensity, 1].
func intensity(score int) float64 {
	v := floorIntensity + 0.15*float64(score)
	if v > 1 {
		return 1
	}
	return v
}
