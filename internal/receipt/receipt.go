// Package receipt formats the year scoped 80G receipt numbers issued for
// verified donations.
package receipt

import "fmt"

// Prefix identifies receipts issued under section 80G of the Income Tax Act.
const Prefix = "80G"

// Format renders sequence seq of year as 80G/<year>/<seq>, zero padded to
// four digits. Sequences past 9999 are rendered in full.
func Format(year, seq int) string {
	return fmt.Sprintf("%s/%d/%04d", Prefix, year, seq)
}

// Next returns the receipt number following issued receipts already handed
// out in year.
func Next(year, issued int) string {
	return Format(year, issued+1)
}
