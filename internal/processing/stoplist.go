package processing

import "strings"

// capitalizedStoplist holds common capitalized English words that are
// not person names: sentence starters, weekdays, months, titles,
// geographic and organizational prefixes. Membership checks are
// case-sensitive on the canonical capitalization.
var capitalizedStoplist = map[string]struct{}{}

func init() {
	words := []string{
		// Weekdays and months.
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
		"January", "February", "March", "April", "May", "June", "July",
		"August", "September", "October", "November", "December",
		// Titles and honorifics.
		"Mr", "Mrs", "Ms", "Dr", "Prof", "Rev", "Hon", "Gen", "Col", "Capt",
		"Lt", "Sgt", "Sir", "Madam", "Judge", "Justice", "President", "Director",
		"Secretary", "Officer", "Agent", "Attorney", "Senator", "Governor",
		// Geographic and organizational.
		"North", "South", "East", "West", "New", "Old", "Upper", "Lower",
		"United", "States", "America", "American", "National", "Federal",
		"State", "County", "City", "District", "Department", "Office",
		"Bureau", "Agency", "Division", "Commission", "Committee", "Board",
		"Court", "Congress", "Senate", "House", "University", "College",
		"School", "Institute", "Center", "Hospital", "Bank", "Company",
		"Corporation", "Association", "Foundation", "Street", "Avenue",
		"Road", "Drive", "Boulevard", "Lane", "Place", "Square", "Park",
		"Building", "Suite", "Floor", "Room",
		// Common sentence starters and function words.
		"The", "This", "That", "These", "Those", "There", "Here", "Then",
		"When", "Where", "While", "Which", "Who", "Whom", "Whose", "What",
		"Why", "How", "And", "But", "Or", "Nor", "For", "Yet", "So", "If",
		"Because", "Although", "Though", "Since", "Unless", "Until",
		"After", "Before", "During", "Between", "Among", "Through",
		"Within", "Without", "Under", "Over", "Above", "Below", "From",
		"Into", "Onto", "Upon", "About", "Against", "Along", "Around",
		"Behind", "Beside", "Beyond", "Near", "Please", "Thank", "Dear",
		"Sincerely", "Regards", "Subject", "Date", "Page", "Section",
		"Article", "Chapter", "Part", "Item", "Number", "Volume", "Exhibit",
		"Appendix", "Attachment", "Enclosure", "Reference", "Regarding",
		"Note", "Notes", "See", "Also", "However", "Therefore", "Moreover",
		"Furthermore", "Accordingly", "Respectfully", "Yes", "No", "Not",
		"All", "Any", "Each", "Every", "Some", "None", "Both", "Other",
		"Another", "Such", "Same", "Total", "Amount", "In", "On", "At",
		"To", "Of", "By", "As", "It", "Its", "He", "She", "They", "We",
		"You", "Our", "Your", "His", "Her", "Their",
	}
	for _, w := range words {
		capitalizedStoplist[w] = struct{}{}
	}
}

// inStoplist matches the token (with a trailing period stripped, so
// "Mr." hits "Mr") against the capitalized stoplist.
func inStoplist(token string) bool {
	token = strings.TrimSuffix(token, ".")
	_, ok := capitalizedStoplist[token]
	return ok
}
