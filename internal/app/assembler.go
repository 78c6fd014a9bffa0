package app

import (
	"math/rand"
	"sync"
	"time"

	"quadtrivia/internal/commit"
	"quadtrivia/internal/domain"
)

// Assembler turns raw upstream questions into client-facing ones: every
// answer shuffled into a single list, the correct one bound to a commitment
// instead of being flagged. The shuffle and the commitment are independent;
// neither leaks into the other.
type Assembler struct {
	signer *commit.Signer

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAssembler(signer *commit.Signer) *Assembler {
	return &Assembler{
		signer: signer,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Assemble builds the presented form of one raw question.
func (a *Assembler) Assemble(q domain.RawQuestion) domain.PresentedQuestion {
	answers := make([]string, 0, len(q.IncorrectAnswers)+1)
	answers = append(answers, q.CorrectAnswer)
	answers = append(answers, q.IncorrectAnswers...)

	a.mu.Lock()
	a.rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	a.mu.Unlock()

	return domain.PresentedQuestion{
		Type:       q.Type,
		Difficulty: q.Difficulty,
		Category:   q.Category,
		Question:   q.Question,
		Answers:    answers,
		Commitment: a.signer.Commit(q.CorrectAnswer),
	}
}
