package git

// ParseStatusForTest exposes parseStatus.
var ParseStatusForTest = parseStatus

// TagNamesForTest exposes tagNames.
var TagNamesForTest = tagNames
