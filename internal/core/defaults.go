package core

import "github.com/google/uuid"

// DefaultCategories returns the categories a new household starts with.
// IDs are derived from the household so seeding is repeatable.
func DefaultCategories(householdID uuid.UUID) []Category {
	seed := []struct {
		name, icon, color string
		typ               TransactionType
	}{
		{"Groceries", "🛒", "#22c55e", Expense},
		{"Housing", "🏠", "#6366f1", Expense},
		{"Transport", "🚗", "#f59e0b", Expense},
		{"Health", "💊", "#ef4444", Expense},
		{"Leisure", "🎉", "#ec4899", Expense},
		{"Education", "📚", "#0ea5e9", Expense},
		{"Bills", "💡", "#eab308", Expense},
		{"Other expenses", "📦", "#64748b", Expense},
		{"Salary", "💼", "#16a34a", Income},
		{"Freelance", "🧑‍💻", "#14b8a6", Income},
		{"Other income", "💰", "#84cc16", Income},
	}
	out := make([]Category, 0, len(seed))
	for _, s := range seed {
		out = append(out, Category{
			Record: Record{
				ID:          uuid.NewSHA1(householdID, []byte("category:"+s.name)),
				HouseholdID: householdID,
			},
			Name:      s.name,
			Icon:      s.icon,
			Color:     s.color,
			Type:      s.typ,
			IsDefault: true,
		})
	}
	return out
}
