package ledger

// SignedBalance maps raw debit/credit totals to a signed balance using the
// account's classification. This is the single sign-convention function used
// by the balance engine and every report; callers must not re-derive it.
//
// Convention:
//   - asset and expense accounts (and any debit-normal account): debit - credit
//   - liability, equity and revenue accounts (and any credit-normal
//     account): credit - debit
//
// Expense balances therefore read as a positive "how much spent" figure.
func SignedBalance(accountType AccountType, normalBalance Side, totalDebit, totalCredit int64) int64 {
	switch accountType {
	case AccountTypeAsset, AccountTypeExpense:
		return totalDebit - totalCredit
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return totalCredit - totalDebit
	}
	// Unknown type: fall back to the account's normal balance side.
	if normalBalance == SideCredit {
		return totalCredit - totalDebit
	}
	return totalDebit - totalCredit
}

// NormalBalanceFor returns the conventional normal balance side for an
// account type.
func NormalBalanceFor(t AccountType) Side {
	switch t {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return SideCredit
	default:
		return SideDebit
	}
}
