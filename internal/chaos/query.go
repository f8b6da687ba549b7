package chaos

import (
	"fmt"
	"strings"
)

// PublishedBetweenQuery selects an organization's objects whose publication
// on the given access point started within [from, to].
func PublishedBetweenQuery(organization, accessPoint, from, to string) string {
	clauses := []string{
		fmt.Sprintf("DKA-Organization: %q", organization),
		fmt.Sprintf("ap%s_PubStart: [%s TO %s]", accessPoint, from, to),
	}
	return strings.Join(clauses, " AND ")
}

// PublishedSort orders results by publication start, oldest first.
func PublishedSort(accessPoint string) string {
	return fmt.Sprintf("ap%s_PubStart+asc", accessPoint)
}
