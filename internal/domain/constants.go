package domain

// Admin hierarchy, from none to national. Higher levels see wider slices of the
// transaction log and user list.
const (
	AdminLevelNone      = "NONE"
	AdminLevelWard      = "WARD"
	AdminLevelLocalGovt = "LOCAL_GOVT"
	AdminLevelState     = "STATE"
	AdminLevelNational  = "NATIONAL"
)

// AdminLevels ordered from narrowest to widest scope.
var AdminLevels = []string{AdminLevelWard, AdminLevelLocalGovt, AdminLevelState, AdminLevelNational}

func IsAdminLevel(level string) bool {
	for _, l := range AdminLevels {
		if l == level {
			return true
		}
	}
	return false
}

const (
	DonationCategoryMonthly   = "MONTHLY"
	DonationCategoryImpromptu = "IMPROMPTU"
	DonationCategoryProject   = "PROJECT"
)

const (
	WelfarePurposeFood     = "FOOD"
	WelfarePurposeSchool   = "SCHOOL"
	WelfarePurposeShelter  = "SHELTER"
	WelfarePurposeClothing = "CLOTHING"
)

var WelfarePurposes = []string{WelfarePurposeFood, WelfarePurposeSchool, WelfarePurposeShelter, WelfarePurposeClothing}

const (
	WaqfCategoryMasjid    = "MASJID"
	WaqfCategoryKnowledge = "KNOWLEDGE"
	WaqfCategoryIncome    = "INCOME"
)

const (
	WaqfMethodExecute  = "EXECUTE"
	WaqfMethodHandover = "HANDOVER"
)

const (
	ChatMessageText       = "TEXT"
	ChatMessageCall       = "CALL"
	ChatMessageVideo      = "VIDEO"
	ChatMessageConference = "CONFERENCE"
)
