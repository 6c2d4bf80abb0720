package github

var (
	IsProtectedBranchErrorForTest = isProtectedBranchError
	IsMissingRefErrorForTest      = isMissingRefError
)
