package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// MonthQuery selects a calendar month, formatted YYYY-MM.
type MonthQuery struct {
	Month string `form:"month" binding:"omitempty,datetime=2006-01"`
}
