package bis

import "github.com/abrezinsky/bisadmin/internal/models"

// Default mock ids that tests refer to
const (
	MockOnlineLocationID = 1
	MockGroupWeekend     = 1
	MockGroupCamp        = 2
	MockGroupOther       = 3
)

// DefaultMockCategories returns lookup tables shaped like the real backend's
func DefaultMockCategories() map[CategoryKind][]models.Category {
	return map[CategoryKind][]models.Category{
		EventGroupCategories: {
			{ID: MockGroupWeekend, Name: "Víkendovka", Slug: "weekend_event"},
			{ID: MockGroupCamp, Name: "Tábor", Slug: "camp"},
			{ID: MockGroupOther, Name: "Jednodenní akce", Slug: "other"},
		},
		EventCategories: {
			{ID: 1, Name: "Dobrovolnická", Slug: "public__volunteering__only_volunteering"},
			{ID: 2, Name: "Zážitková", Slug: "public__only_experiential"},
			{ID: 3, Name: "Vzdělávací - přednáška", Slug: "public__educational__lecture"},
			{ID: 4, Name: "Oddílová schůzka", Slug: "internal__section_meeting"},
			{ID: 5, Name: "Dobrovolnická se zážitkem", Slug: "public__volunteering__with_experience"},
		},
		ProgramCategories: {
			{ID: 1, Name: "Akce příroda", Slug: "nature"},
			{ID: 2, Name: "Akce památky", Slug: "monuments"},
			{ID: 3, Name: "Ekostan", Slug: "eco_tent"},
			{ID: 4, Name: "PsB", Slug: "holidays_with_brontosaurus"},
			{ID: 5, Name: "Bez programu", Slug: "none"},
		},
		IntendedForCategories: {
			{ID: 1, Name: "pro všechny", Slug: "for_all"},
			{ID: 2, Name: "pro mládež a dospělé", Slug: "for_young_and_adult"},
			{ID: 3, Name: "pro děti", Slug: "for_kids"},
			{ID: 4, Name: "pro rodiče s dětmi", Slug: "for_parents_with_kids"},
			{ID: 5, Name: "pro prvoúčastníky", Slug: "for_first_time_participant"},
		},
		DietCategories: {
			{ID: 1, Name: "s masem", Slug: "meat"},
			{ID: 2, Name: "vegetariánská", Slug: "vegetarian"},
			{ID: 3, Name: "veganská", Slug: "vegan"},
		},
		QualificationCategories: {
			{ID: 1, Name: "Organizátor (OHB)", Slug: "organizer"},
			{ID: 2, Name: "Organizátor víkendovek (OvHB)", Slug: "weekend_organizer"},
			{ID: 3, Name: "Konzultant", Slug: "consultant"},
			{ID: 4, Name: "Instruktor", Slug: "instructor"},
			{ID: 5, Name: "Vedoucí dětského oddílu", Slug: "kids_leader"},
			{ID: 6, Name: "Konzultant pro akce pro děti", Slug: "consultant_for_kids"},
		},
		OpportunityCategories: {
			{ID: 1, Name: "Organizování akcí", Slug: "organizing"},
			{ID: 2, Name: "Spolupráce", Slug: "collaboration"},
			{ID: 3, Name: "Pomoc lokalitě", Slug: "location_help"},
		},
		HealthInsuranceCompanies: {
			{ID: 1, Name: "Všeobecná zdravotní pojišťovna", Slug: "111"},
			{ID: 2, Name: "Vojenská zdravotní pojišťovna", Slug: "201"},
			{ID: 3, Name: "Česká průmyslová zdravotní pojišťovna", Slug: "205"},
		},
	}
}

// DefaultMockAdministrationUnits returns a few clubs
func DefaultMockAdministrationUnits() []models.AdministrationUnit {
	return []models.AdministrationUnit{
		{ID: 1, Abbreviation: "ÚHB", Name: "Ústřední Hnutí Brontosaurus"},
		{ID: 2, Abbreviation: "ZČ Hamr", Name: "Základní článek Hamr"},
		{ID: 3, Abbreviation: "BRĎO Sluníčko", Name: "Dětský oddíl Sluníčko", IsForKids: true},
	}
}

// DefaultMockUsers returns users with and without qualifications
func DefaultMockUsers() []models.User {
	return []models.User{
		{
			ID: 1, FirstName: "Jana", LastName: "Nováková", Nickname: "Žabka",
			Email: "jana@example.cz", Birthday: models.MustDate("1990-03-14"),
			Qualifications: []models.Qualification{
				{Category: models.Category{ID: 1, Slug: "organizer"}, ValidSince: models.MustDate("2020-01-01"), ValidTill: models.MustDate("2099-01-01")},
			},
		},
		{
			ID: 2, FirstName: "Petr", LastName: "Svoboda",
			Email: "petr@example.cz", Birthday: models.MustDate("1985-11-02"),
		},
		{
			ID: 3, FirstName: "Eva", LastName: "Malá",
			Email: "eva@example.cz", Birthday: models.MustDate("2012-06-20"),
			Qualifications: []models.Qualification{
				{Category: models.Category{ID: 5, Slug: "kids_leader"}, ValidSince: models.MustDate("2023-01-01")},
			},
		},
		{
			ID: 4, FirstName: "Tomáš", LastName: "Dvořák", Nickname: "Bobr",
			Email: "bobr@example.cz", Birthday: models.MustDate("1979-01-30"),
			Qualifications: []models.Qualification{
				{Category: models.Category{ID: 3, Slug: "consultant"}, ValidSince: models.MustDate("2010-01-01"), ValidTill: models.MustDate("2020-12-31")},
			},
		},
	}
}

// DefaultMockLocations returns the online location and one physical place
func DefaultMockLocations() []models.LocationRecord {
	return []models.LocationRecord{
		{ID: MockOnlineLocationID, LocationDetails: models.LocationDetails{Name: "Online", Address: "-"}},
		{ID: 2, LocationDetails: models.LocationDetails{
			Name:        "Základna Hamr",
			Address:     "Hamr na Jezeře 12",
			GPSLocation: models.NewPoint(50.6978, 14.8409),
		}},
	}
}

// DefaultMockReferenceData assembles the default lookups the way the
// reference service does
func DefaultMockReferenceData() models.ReferenceData {
	cats := DefaultMockCategories()
	return models.ReferenceData{
		EventGroups:              cats[EventGroupCategories],
		EventCategories:          cats[EventCategories],
		Programs:                 cats[ProgramCategories],
		IntendedFor:              cats[IntendedForCategories],
		Diets:                    cats[DietCategories],
		Qualifications:           cats[QualificationCategories],
		AdministrationUnits:      DefaultMockAdministrationUnits(),
		OpportunityCategories:    cats[OpportunityCategories],
		HealthInsuranceCompanies: cats[HealthInsuranceCompanies],
	}
}
