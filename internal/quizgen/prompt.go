package quizgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/quiz"
)

const systemPrompt = "You are an expert Japanese language teacher creating JLPT quizzes. " +
	"Avoid making questions similar to those asked recently. " +
	"Generate varied questions covering different grammar points, vocabulary, " +
	"and kanji, from levels N5 to N3."

const recentHeader = "Previously asked questions:\n"

const quizTask = `Generate a random JLPT multiple choice question from levels N5 to N3 as a JSON object.
 - Be as didactic as possible.
 - Draw on past JLPT tests.
 - Use English on N5 and N4 questions.
Include:
 - question: the question text, starting with its level tag, e.g. "[N4]"
 - options: exactly 4 answer options (A, B, C, D)
 - correct_option_id: the 0-based index of the correct option. Without it the question is unusable.
 - explanation: plain text of at most 200 characters and at most 1 line break, explaining in English and Japanese why the correct option is correct.

Return ONLY the JSON object and follow the structure strictly, as in these examples:

{"question":"[N1] 彼の話し方は論理的で、説得力に_______。","options":["富んでいる","欠けている","足りている","優れている"],"correct_option_id":0,"explanation":"『説得力に富む』 means 'full of persuasiveness'."}
{"question":"[N5] How do you say 'river' in Japanese?","options":["山","川","海","空"],"correct_option_id":1,"explanation":"『川』 means 'river' and is pronounced 'かわ'."}
{"question":"[N4] 昨日は友達と公園で_______。","options":["遊びました","勉強しました","働きました","休みました"],"correct_option_id":0,"explanation":"『遊びました』 means 'played'. Yesterday, played with friends in the park."}
{"question":"[N3] この料理は見た目は美しい_______、味は普通だ。","options":["けれど","ので","から","が"],"correct_option_id":3,"explanation":"『が』 is used to express contrast politely. Although it looks beautiful, the taste is ordinary."}
{"question":"[N5] What does the kanji '犬' mean?","options":["Cat","Bird","Dog","Fish"],"correct_option_id":2,"explanation":"『犬』 means 'dog' and is pronounced 'いぬ'."}`

// levelDirective is appended last when the caller asked for a level.
func levelDirective(l quiz.Level) string {
	return fmt.Sprintf("Generate the question strictly at JLPT level %s and tag it [%s].", l, l)
}

// buildRequest composes the generation request: fixed system instruction,
// then the recent questions (if any), then the task, then the optional
// level directive.
func buildRequest(recent []quiz.Record, level quiz.Level, cfg Config) llm.Request {
	var msgs []llm.Message

	if list := buildDedup(recent, cfg.RecentWindow); list != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: recentHeader + list})
	}

	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: quizTask})

	if level.Valid() {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: levelDirective(level)})
	}

	req := llm.Request{
		System:      systemPrompt,
		Messages:    msgs,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	if cfg.StructuredOutput {
		req.Schema = QuizSchema
	}
	return req
}

const explainSystemPrompt = "You are an expert Japanese language teacher."

// buildExplainRequest asks for a detailed bilingual explanation of rec.
// A negative CorrectOptionID means the correct answer is not known.
func buildExplainRequest(rec quiz.Record, cfg Config) llm.Request {
	var b strings.Builder

	b.WriteString("The user submitted the following JLPT-style quiz question:\n\n")
	b.WriteString(strings.TrimSpace(rec.Question))
	b.WriteString("\n")

	if len(rec.Options) > 0 {
		b.WriteString("\nOptions:\n")
		for i, opt := range rec.Options {
			fmt.Fprintf(&b, "%s. %s\n", quiz.Label(i), opt)
		}
	}
	if rec.CorrectOptionID >= 0 && rec.CorrectOptionID < len(rec.Options) {
		fmt.Fprintf(&b, "\nCorrect answer: %s. %s\n",
			quiz.Label(rec.CorrectOptionID), rec.Options[rec.CorrectOptionID])
	}

	b.WriteString("\nProvide a more detailed explanation of the correct answer.\n")
	b.WriteString("Use Japanese and English, and include grammar, usage, and nuance.")

	return llm.Request{
		System:      explainSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		MaxTokens:   cfg.ExplainMaxTokens,
		Temperature: cfg.Temperature,
	}
}
