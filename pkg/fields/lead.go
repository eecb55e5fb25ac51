package fields

import "github.com/aretw0/weft/pkg/domain"

// LeadFields is the field catalog of a lead record. It must match the lead
// data model served by the lead store.
var LeadFields = []string{
	"LeadNumber",
	"TargetID",
	"firstName",
	"lastName",
	"personTitle",
	"personTitleDescription",
	"personSummary",
	"personLocation",
	"durationInRole",
	"durationInCompany",
	"email",
	"email_validation",
	"companyName",
	"companyDescription",
	"companyTagLine",
	"industry",
	"employeeCount",
	"companyLocation",
	"website",
	"domain",
	"minRevenue",
	"maxRevenue",
	"growth6Mth",
	"growth1Yr",
	"growth2Yr",
}

// FromLeadCatalog returns "leads", every "leads[].<field>" and "leadCount".
// Lead nodes always expose the catalog, whatever their configuration.
func FromLeadCatalog(domain.Node) ([]string, bool) {
	out := make([]string, 0, len(LeadFields)+2)
	out = append(out, "leads")
	for _, f := range LeadFields {
		out = append(out, "leads[]."+f)
	}
	out = append(out, "leadCount")
	return out, true
}
