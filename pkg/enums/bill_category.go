package enums

import "fmt"

// BillCategory classifies a bill for display and reporting.
type BillCategory string

const (
	BillCategoryRent         BillCategory = "rent"
	BillCategoryUtilities    BillCategory = "utilities"
	BillCategorySubscription BillCategory = "subscription"
	BillCategoryLoan         BillCategory = "loan"
	BillCategoryInsurance    BillCategory = "insurance"
	BillCategoryOther        BillCategory = "other"
)

var validBillCategories = []BillCategory{
	BillCategoryRent,
	BillCategoryUtilities,
	BillCategorySubscription,
	BillCategoryLoan,
	BillCategoryInsurance,
	BillCategoryOther,
}

// String implements fmt.Stringer.
func (c BillCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BillCategory.
func (c BillCategory) IsValid() bool {
	for _, candidate := range validBillCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBillCategory converts raw input into a BillCategory.
func ParseBillCategory(value string) (BillCategory, error) {
	for _, candidate := range validBillCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bill category %q", value)
}
