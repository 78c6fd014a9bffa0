package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quadtrivia/internal/domain"
)

// QuestionBank serves questions from a local Postgres table, as an
// alternative to the upstream bank. The credential token is accepted for
// interface parity and ignored; pair this with a static issuer.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) FetchQuestions(ctx context.Context, _ string, amount, category int, difficulty string) ([]domain.RawQuestion, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT type, difficulty, category, question, correct_answer, incorrect_answers
		FROM questions
		WHERE ($2 = 0 OR category_id = $2)
		  AND ($3 = '' OR difficulty = $3)
		ORDER BY random()
		LIMIT $1`, amount, category, difficulty)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.RawQuestion
	for rows.Next() {
		var q domain.RawQuestion
		var distractors []byte
		if err := rows.Scan(&q.Type, &q.Difficulty, &q.Category, &q.Question, &q.CorrectAnswer, &distractors); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(distractors, &q.IncorrectAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal distractors: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// LoadCategories derives the category list from the stored questions.
func (b *QuestionBank) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT DISTINCT category_id, category
		FROM questions
		ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
