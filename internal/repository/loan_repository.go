package repository

import (
	"context"
	"database/sql"
	"time"

	"loan-approval-service/internal/entity"
)

const loanColumns = `person_age, person_gender, person_education, person_income, person_emp_exp,
	person_home_ownership, loan_amnt, loan_intent, loan_int_rate, loan_percent_income,
	cb_person_cred_hist_length, credit_score, previous_loan_defaults_on_file`

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db}
}

// Create stores a decided application. Loan records are never updated.
func (r *LoanRepository) Create(ctx context.Context, loan *entity.Loan) (*entity.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now().UTC()
	}

	a := loan.LoanApplication
	query := `INSERT INTO loans (user_id, ` + loanColumns + `, loan_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		loan.UserID,
		a.PersonAge, a.PersonGender, a.PersonEducation, a.PersonIncome, a.PersonEmpExp,
		a.PersonHomeOwnership, a.LoanAmnt, a.LoanIntent, a.LoanIntRate, a.LoanPercentIncome,
		a.CbPersonCredHistLength, a.CreditScore, a.PreviousLoanDefaultsOnFile,
		loan.LoanStatus, loan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	loan.ID = id
	return loan, nil
}

// ListByUser returns the user's loans, newest first.
func (r *LoanRepository) ListByUser(ctx context.Context, userID int64) ([]*entity.Loan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT id, user_id, ` + loanColumns + `, loan_status, created_at
		FROM loans WHERE user_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*entity.Loan
	for rows.Next() {
		var l entity.Loan
		a := &l.LoanApplication
		err := rows.Scan(&l.ID, &l.UserID,
			&a.PersonAge, &a.PersonGender, &a.PersonEducation, &a.PersonIncome, &a.PersonEmpExp,
			&a.PersonHomeOwnership, &a.LoanAmnt, &a.LoanIntent, &a.LoanIntRate, &a.LoanPercentIncome,
			&a.CbPersonCredHistLength, &a.CreditScore, &a.PreviousLoanDefaultsOnFile,
			&l.LoanStatus, &l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		loans = append(loans, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return loans, nil
}

// StatsByUser counts the user's loans and how many were approved.
func (r *LoanRepository) StatsByUser(ctx context.Context, userID int64) (entity.LoanStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total, approved int
	query := `SELECT COUNT(*), COALESCE(SUM(loan_status), 0) FROM loans WHERE user_id = ?`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total, &approved); err != nil {
		return entity.LoanStats{}, err
	}
	return entity.NewLoanStats(total, approved), nil
}
