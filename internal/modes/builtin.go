package modes

// Categories of built-in modes.
const (
	CategoryStyle       = "style"
	CategoryCorrection  = "correction"
	CategoryTone        = "tone"
	CategoryStructure   = "structure"
	CategorySpecialized = "specialized"
	CategoryFun         = "fun"
	CategoryGeneration  = "generation"
	CategoryUtility     = "utility"
	CategoryCustom      = "custom"
)

// DefaultKey is the built-in mode used when a key has no template.
const DefaultKey = "humanize"

// ComposerKey is the free-form generation mode.
const ComposerKey = "composer"

// DefaultTemperature applies to custom modes and unknown built-in keys.
const DefaultTemperature = 1.2

// Definition is the fixed data behind a built-in mode.
type Definition struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Temperature float64 `json:"temperature"`
	Template    string  `json:"-"`
}

// definitions keeps the menu order of the built-in modes.
var definitions = []Definition{
	{
		Key: "humanize", Name: "Humanize (Make Natural)", Category: CategoryStyle, Temperature: 1.0,
		Description: "Make text sound more natural and conversational",
		Template:    "Rewrite this text to sound more natural and human-like. Use conversational language, vary sentence structures, and make it feel like a real person wrote it. Avoid overly formal or robotic phrasing. Add natural flow and personality while preserving the core message.",
	},
	{
		Key: "grammar", Name: "Fix Grammar & Spelling", Category: CategoryCorrection, Temperature: 0.7,
		Description: "Correct grammatical errors and typos",
		Template:    "Fix only the grammar, spelling, and punctuation errors in this text. Keep the original meaning, tone, and style exactly the same. Make minimal changes - only correct actual errors without changing the author's voice or intent.",
	},
	{
		Key: "professional", Name: "Professional Tone", Category: CategoryTone, Temperature: 0.8,
		Description: "Formal business communication style",
		Template:    "Rewrite this text in a professional business tone. Use formal language, clear structure, and maintain credibility. Be concise and respectful while ensuring the message is authoritative and appropriate for a business context.",
	},
	{
		Key: "polite", Name: "Polite & Courteous", Category: CategoryTone, Temperature: 0.9,
		Description: "Soften language with respectful phrasing",
		Template:    `Rewrite this text to be more polite and courteous. Soften any direct language, add respectful phrasing like "please" and "thank you" where appropriate, and ensure a warm, considerate tone throughout.`,
	},
	{
		Key: "casual", Name: "Casual & Friendly", Category: CategoryTone, Temperature: 1.0,
		Description: "Informal, conversational style",
		Template:    "Rewrite this text in a casual, friendly tone. Use informal language, contractions, and make it sound like a conversation between friends. Keep it relaxed and approachable while maintaining clarity.",
	},
	{
		Key: "confident", Name: "Confident & Assertive", Category: CategoryTone, Temperature: 1.0,
		Description: "Strong, decisive language",
		Template:    "Rewrite this text to sound more confident and assertive. Use strong, decisive language while maintaining professionalism. Eliminate uncertainty and make statements clear and authoritative.",
	},
	{
		Key: "empathetic", Name: "Empathetic & Understanding", Category: CategoryTone, Temperature: 1.0,
		Description: "Caring and emotionally aware tone",
		Template:    "Rewrite this text with an empathetic and understanding tone. Show care, consideration, and emotional awareness. Use language that demonstrates you understand and relate to the reader's situation.",
	},
	{
		Key: "persuasive", Name: "Persuasive & Compelling", Category: CategoryStyle, Temperature: 1.1,
		Description: "Convincing and motivating language",
		Template:    "Rewrite this text to be more persuasive and compelling. Use convincing language, logical flow, and motivating phrases. Structure arguments effectively and include compelling reasons to strengthen the message.",
	},
	{
		Key: "concise", Name: "Concise & Clear", Category: CategoryStructure, Temperature: 1.0,
		Description: "Remove fluff, get to the point",
		Template:    "Rewrite this text to be more concise and clear. Remove unnecessary words, eliminate redundancy, simplify complex sentences, and get straight to the point while preserving all essential information.",
	},
	{
		Key: "detailed", Name: "Detailed & Comprehensive", Category: CategoryStructure, Temperature: 1.0,
		Description: "Add depth and explanations",
		Template:    "Rewrite this text to be more detailed and comprehensive. Add relevant information, examples, explanations, and context to make it more complete and informative without losing focus.",
	},
	{
		Key: "creative", Name: "Creative & Engaging", Category: CategoryStyle, Temperature: 1.4,
		Description: "Vivid, imaginative language",
		Template:    "Rewrite this text to be more creative and engaging. Use vivid language, interesting metaphors, varied sentence structures, and captivating phrasing while keeping the core message intact.",
	},
	{
		Key: "technical", Name: "Technical & Precise", Category: CategorySpecialized, Temperature: 0.8,
		Description: "Accurate technical terminology",
		Template:    "Rewrite this text in a technical and precise manner. Use accurate terminology, clear specifications, proper technical language, and maintain professional technical standards appropriate for the subject matter.",
	},
	{
		Key: "academic", Name: "Academic & Scholarly", Category: CategorySpecialized, Temperature: 0.8,
		Description: "Formal academic writing style",
		Template:    "Rewrite this text in an academic and scholarly style. Use formal academic language, proper citation style markers where appropriate, objective tone, and structured argumentation suitable for academic writing.",
	},
	{
		Key: "marketing", Name: "Marketing & Sales", Category: CategorySpecialized, Temperature: 1.2,
		Description: "Promotional and engaging copy",
		Template:    "Rewrite this text as engaging marketing copy. Use persuasive language, highlight benefits, create urgency or excitement, and make it compelling for the target audience while maintaining authenticity.",
	},
	{
		Key: "cheeky", Name: "Cheeky & Playful", Category: CategoryFun, Temperature: 1.3,
		Description: "Witty and slightly sarcastic",
		Template:    "Rewrite this text with a playful, cheeky, and slightly sarcastic tone. Add wit and humor while keeping it appropriately irreverent. Make it entertaining while preserving the essential message.",
	},
	{
		Key: "newby", Name: "Beginner-Friendly", Category: CategoryFun, Temperature: 1.2,
		Description: "Simple language for newcomers",
		Template:    "Rewrite this text as if written by someone new to the topic. Use simpler language, show enthusiasm and curiosity, and include the perspective of someone learning about the subject for the first time.",
	},
	{
		Key: "composer", Name: "Compose from Instruction", Category: CategoryGeneration, Temperature: 1.2,
		Description: "Generate new content from prompts",
		Template:    `Generate new content based on this instruction. Create original text that fulfills the request clearly and completely. If it's a request like "write email about...", create the full email content. If it's "ideas for...", provide a well-structured list.`,
	},
	{
		Key: "translate", Name: "Translate to English", Category: CategoryUtility, Temperature: 0.9,
		Description: "Convert text to clear English",
		Template:    "Translate this text to clear, natural English. If it's already in English, improve the clarity, natural flow, and readability while preserving the original meaning and intent.",
	},
	{
		Key: "summarize", Name: "Summarize Key Points", Category: CategoryUtility, Temperature: 0.9,
		Description: "Extract main ideas concisely",
		Template:    "Create a concise summary of this text. Extract the key points, main ideas, and essential information, presenting them clearly and briefly while maintaining the logical structure.",
	},
	{
		Key: "expand", Name: "Expand & Elaborate", Category: CategoryStructure, Temperature: 1.1,
		Description: "Add more detail and context",
		Template:    "Expand and elaborate on this text. Add more detail, context, examples, and explanations to make it more comprehensive and thorough while maintaining the original focus and direction.",
	},
	{
		Key: "simplify", Name: "Simplify & Clarify", Category: CategoryUtility, Temperature: 0.9,
		Description: "Make complex text easier to understand",
		Template:    "Simplify this text to make it easier to understand. Use plain language, shorter sentences, common words, and clear explanations while preserving all the important information and meaning.",
	},
}

var byKey = func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Key] = d
	}
	return m
}()

// Lookup returns the built-in definition for key.
func Lookup(key string) (Definition, bool) {
	d, ok := byKey[key]
	return d, ok
}

// IsBuiltIn reports whether key names a built-in mode.
func IsBuiltIn(key string) bool {
	_, ok := byKey[key]
	return ok
}

// Definitions returns the built-in modes in menu order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// BuiltInKeys returns every built-in key in menu order.
func BuiltInKeys() []string {
	keys := make([]string, 0, len(definitions))
	for _, d := range definitions {
		keys = append(keys, d.Key)
	}
	return keys
}

// Template returns the instruction for key, falling back to the humanize
// template when the key is unknown.
func Template(key string) string {
	if d, ok := byKey[key]; ok {
		return d.Template
	}
	return byKey[DefaultKey].Template
}

// Temperature returns the sampling temperature for key, or
// DefaultTemperature when the key is unknown.
func Temperature(key string) float64 {
	if d, ok := byKey[key]; ok {
		return d.Temperature
	}
	return DefaultTemperature
}
