package model

// Category classifies a ledger row as a specific income or expense type, or as
// an internal transfer between settlement accounts.
type Category string

// Core business income.
const (
	CategoryEngineeringIncome  Category = "工程收入"
	CategoryConstructionIncome Category = "施工收入"
	CategoryProductSales       Category = "产品销售收入"
	CategoryServiceIncome      Category = "服务收入"
	CategoryAdvanceReceipt     Category = "预收款"
)

// Core business expense.
const (
	CategoryEngineeringCost  Category = "工程成本"
	CategoryConstructionCost Category = "施工成本"
)

// Other income.
const (
	CategoryNetworkIncome     Category = "网络收入"
	CategoryOtherIncome       Category = "其他收入"
	CategoryLoanReceived      Category = "借款"
	CategoryReceivableCollect Category = "往来款收回"
	CategoryDepositReturned   Category = "押金收回"
)

// Other expense.
const (
	CategoryNetworkCost    Category = "网络成本"
	CategoryAdministrative Category = "管理费用"
	CategoryTravel         Category = "差旅费"
	CategoryPayroll        Category = "工资福利"
	CategoryPayablePaid    Category = "往来款支付"
	CategoryDepositPaid    Category = "押金支付"
	CategoryLoanRepaid     Category = "归还借款"
)

// CategoryTransfer moves funds between two settlement accounts and always
// produces a pair of rows.
const CategoryTransfer Category = "资金结转"

type categoryKind int

const (
	kindIncome categoryKind = iota + 1
	kindExpense
	kindTransfer
)

type categoryInfo struct {
	kind categoryKind
	core bool
}

var categoryOrder = []Category{
	CategoryEngineeringIncome,
	CategoryConstructionIncome,
	CategoryProductSales,
	CategoryServiceIncome,
	CategoryAdvanceReceipt,
	CategoryEngineeringCost,
	CategoryConstructionCost,
	CategoryNetworkIncome,
	CategoryOtherIncome,
	CategoryLoanReceived,
	CategoryReceivableCollect,
	CategoryDepositReturned,
	CategoryNetworkCost,
	CategoryAdministrative,
	CategoryTravel,
	CategoryPayroll,
	CategoryPayablePaid,
	CategoryDepositPaid,
	CategoryLoanRepaid,
	CategoryTransfer,
}

var categories = map[Category]categoryInfo{
	CategoryEngineeringIncome:  {kind: kindIncome, core: true},
	CategoryConstructionIncome: {kind: kindIncome, core: true},
	CategoryProductSales:       {kind: kindIncome, core: true},
	CategoryServiceIncome:      {kind: kindIncome, core: true},
	CategoryAdvanceReceipt:     {kind: kindIncome, core: true},
	CategoryEngineeringCost:    {kind: kindExpense, core: true},
	CategoryConstructionCost:   {kind: kindExpense, core: true},
	CategoryNetworkIncome:      {kind: kindIncome},
	CategoryOtherIncome:        {kind: kindIncome},
	CategoryLoanReceived:       {kind: kindIncome},
	CategoryReceivableCollect:  {kind: kindIncome},
	CategoryDepositReturned:    {kind: kindIncome},
	CategoryNetworkCost:        {kind: kindExpense},
	CategoryAdministrative:     {kind: kindExpense},
	CategoryTravel:             {kind: kindExpense},
	CategoryPayroll:            {kind: kindExpense},
	CategoryPayablePaid:        {kind: kindExpense},
	CategoryDepositPaid:        {kind: kindExpense},
	CategoryLoanRepaid:         {kind: kindExpense},
	CategoryTransfer:           {kind: kindTransfer},
}

// Categories returns every known category, income groups first.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Valid reports whether c is part of the fixed enumeration.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// IsIncome reports whether rows of this category book income.
func (c Category) IsIncome() bool { return categories[c].kind == kindIncome }

// IsExpense reports whether rows of this category book expense.
func (c Category) IsExpense() bool { return categories[c].kind == kindExpense }

// IsTransfer reports whether c is the paired transfer category.
func (c Category) IsTransfer() bool { return categories[c].kind == kindTransfer }

// IsCoreBusiness reports whether entries of this category must name a project.
func (c Category) IsCoreBusiness() bool { return categories[c].core }
