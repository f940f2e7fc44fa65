package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stacksapp/stacks-server/internal/domain"
)

func (s *Server) registerLendingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "borrowResource",
		Method:      http.MethodPost,
		Path:        "/api/v1/loans",
		Summary:     "Borrow resource",
		Description: "Checks a resource out to a user. Physical resources need a copy on the shelf.",
		Tags:        []string{"Lending"},
	}, s.handleBorrow)

	huma.Register(s.api, huma.Operation{
		OperationID: "returnLoan",
		Method:      http.MethodPost,
		Path:        "/api/v1/loans/{id}/return",
		Summary:     "Return loan",
		Description: "Closes an active loan, restores the copy, and reports any fine owed",
		Tags:        []string{"Lending"},
	}, s.handleReturn)

	huma.Register(s.api, huma.Operation{
		OperationID: "reserveResource",
		Method:      http.MethodPost,
		Path:        "/api/v1/reservations",
		Summary:     "Reserve resource",
		Description: "Places a hold on a resource that is currently checked out",
		Tags:        []string{"Lending"},
	}, s.handleReserve)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserTransactions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/transactions",
		Summary:     "List user transactions",
		Description: "Returns a user's borrowing history, newest first, with overdue status applied",
		Tags:        []string{"Lending"},
	}, s.handleUserTransactions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserFines",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/fines",
		Summary:     "Get user fines",
		Description: "Returns the fines accruing on a user's open overdue loans",
		Tags:        []string{"Lending"},
	}, s.handleUserFines)
}

// === DTOs ===

// BorrowRequest contains the fields for checking out a resource.
type BorrowRequest struct {
	UserID     string `json:"user_id" validate:"required,min=1,max=100" doc:"Borrowing user's ID"`
	ResourceID string `json:"resource_id" validate:"required,min=1,max=100" doc:"Resource to borrow"`
	LoanDays   int    `json:"loan_days,omitempty" validate:"omitempty,gte=1,lte=30" doc:"Loan period in days (default 14)"`
}

// BorrowInput contains the request body for borrowing.
type BorrowInput struct {
	Body BorrowRequest
}

// TransactionOutput wraps a single transaction for Huma.
type TransactionOutput struct {
	Body domain.Transaction
}

// ReturnInput contains the loan transaction ID.
type ReturnInput struct {
	ID string `path:"id" doc:"Loan transaction ID"`
}

// ReturnResponse contains the outcome of a return.
type ReturnResponse struct {
	Transaction      domain.Transaction `json:"transaction" doc:"The closed loan"`
	Fine             float64            `json:"fine" doc:"Fine owed for this loan, zero when returned on time"`
	OpenReservations int                `json:"open_reservations" doc:"Reservations still queued against the resource"`
}

// ReturnOutput wraps the return response for Huma.
type ReturnOutput struct {
	Body ReturnResponse
}

// ReserveRequest contains the fields for placing a hold.
type ReserveRequest struct {
	UserID     string `json:"user_id" validate:"required,min=1,max=100" doc:"Reserving user's ID"`
	ResourceID string `json:"resource_id" validate:"required,min=1,max=100" doc:"Resource to reserve"`
	From       string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02" format:"date" doc:"Hold start date (default today)"`
	To         string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02" format:"date" doc:"Hold end date (default start plus the configured window)"`
}

// ReserveInput contains the request body for reserving.
type ReserveInput struct {
	Body ReserveRequest
}

// UserTransactionsInput contains the user ID path parameter.
type UserTransactionsInput struct {
	ID string `path:"id" doc:"User ID"`
}

// UserTransactionsResponse contains a user's borrowing history.
type UserTransactionsResponse struct {
	UserID       string                `json:"user_id" doc:"User ID"`
	Transactions []*domain.Transaction `json:"transactions" doc:"Transactions, newest first"`
}

// UserTransactionsOutput wraps the transaction history for Huma.
type UserTransactionsOutput struct {
	Body UserTransactionsResponse
}

// UserFinesInput contains the user ID path parameter.
type UserFinesInput struct {
	ID string `path:"id" doc:"User ID"`
}

// FineItem is the accrued fine on a single overdue loan.
type FineItem struct {
	Transaction domain.Transaction `json:"transaction" doc:"The overdue loan"`
	DaysOverdue int                `json:"days_overdue" doc:"Days past the due date"`
	Amount      float64            `json:"amount" doc:"Accrued fine in dollars"`
}

// UserFinesResponse summarizes a user's accruing fines.
type UserFinesResponse struct {
	UserID string     `json:"user_id" doc:"User ID"`
	Total  float64    `json:"total" doc:"Total accruing fine in dollars"`
	Items  []FineItem `json:"items" doc:"Per-loan fine breakdown"`
}

// UserFinesOutput wraps the fines response for Huma.
type UserFinesOutput struct {
	Body UserFinesResponse
}

// === Handlers ===

func (s *Server) handleBorrow(ctx context.Context, input *BorrowInput) (*TransactionOutput, error) {
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	txn, err := s.services.Lending.Borrow(ctx, input.Body.UserID, input.Body.ResourceID, input.Body.LoanDays)
	if err != nil {
		return nil, err
	}
	return &TransactionOutput{Body: *txn}, nil
}

func (s *Server) handleReturn(ctx context.Context, input *ReturnInput) (*ReturnOutput, error) {
	result, err := s.services.Lending.Return(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ReturnOutput{
		Body: ReturnResponse{
			Transaction:      *result.Transaction,
			Fine:             result.Fine,
			OpenReservations: result.OpenReservations,
		},
	}, nil
}

func (s *Server) handleReserve(ctx context.Context, input *ReserveInput) (*TransactionOutput, error) {
	if err := validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	from, err := parseOptionalDate(input.Body.From)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate(input.Body.To)
	if err != nil {
		return nil, err
	}

	txn, err := s.services.Lending.Reserve(ctx, input.Body.UserID, input.Body.ResourceID, from, to)
	if err != nil {
		return nil, err
	}
	return &TransactionOutput{Body: *txn}, nil
}

func (s *Server) handleUserTransactions(ctx context.Context, input *UserTransactionsInput) (*UserTransactionsOutput, error) {
	txns, err := s.services.Lending.UserTransactions(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &UserTransactionsOutput{
		Body: UserTransactionsResponse{
			UserID:       input.ID,
			Transactions: txns,
		},
	}, nil
}

func (s *Server) handleUserFines(ctx context.Context, input *UserFinesInput) (*UserFinesOutput, error) {
	fines, err := s.services.Lending.FinesForUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	items := make([]FineItem, 0, len(fines.Items))
	for _, item := range fines.Items {
		items = append(items, FineItem{
			Transaction: *item.Transaction,
			DaysOverdue: item.DaysOverdue,
			Amount:      item.Amount,
		})
	}

	return &UserFinesOutput{
		Body: UserFinesResponse{
			UserID: fines.UserID,
			Total:  fines.Total,
			Items:  items,
		},
	}, nil
}
