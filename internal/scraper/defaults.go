package scraper

// AshbyBoard names a company board hosted on jobs.ashbyhq.com
type AshbyBoard struct {
	Company string `yaml:"company"`
	Org     string `yaml:"org"`
}

// DefaultAggregators are general startup boards read with the generic extractor.
var DefaultAggregators = []Board{
	{Name: "Startup.jobs", URL: "https://startup.jobs"},
	{Name: "Work In Startups", URL: "https://workinstartups.com"},
	{Name: "EU-Startups", URL: "https://www.eu-startups.com/startup-jobs"},
	{Name: "The Hub", URL: "https://thehub.io"},
	{Name: "Welcome to the Jungle UK", URL: "https://uk.welcometothejungle.com"},
	{Name: "Built In", URL: "https://builtin.com"},
	{Name: "Startupers", URL: "https://www.startupers.com"},
	{Name: "European Startup Jobs", URL: "https://defiant.vc/european-startup-jobs"},
}

// DefaultVCBoards are portfolio boards; their funding stage is the fund's name.
var DefaultVCBoards = []Board{
	{Name: "Antler", URL: "https://careers.antler.co/jobs", FundingStage: "Antler"},
	{Name: "a16z Portfolio", URL: "https://portfoliojobs.a16z.com", FundingStage: "a16z"},
	{Name: "Index Ventures", URL: "https://www.indexventures.com/startup-jobs", FundingStage: "Index Ventures"},
	{Name: "Seedcamp", URL: "https://talent.seedcamp.com/jobs", FundingStage: "Seedcamp"},
	{Name: "Accel", URL: "https://jobs.accel.com/", FundingStage: "Accel"},
	{Name: "Sequoia Capital", URL: "https://www.sequoiacap.com/jobs", FundingStage: "Sequoia"},
	{Name: "Bessemer", URL: "https://jobs.bvp.com/jobs", FundingStage: "Bessemer"},
	{Name: "NEA", URL: "https://careers.nea.com/jobs", FundingStage: "NEA"},
	{Name: "Greylock", URL: "https://jobs.greylock.com/jobs", FundingStage: "Greylock"},
	{Name: "Initialized Capital", URL: "https://jobs.initialized.com/jobs", FundingStage: "Initialized"},
	{Name: "Atomico", URL: "https://careers.atomico.com/jobs", FundingStage: "Atomico"},
	{Name: "Balderton", URL: "https://careers.balderton.com/", FundingStage: "Balderton"},
	{Name: "Lightspeed", URL: "https://jobs.lsvp.com/jobs", FundingStage: "Lightspeed"},
	{Name: "Khosla Ventures", URL: "https://jobs.khoslaventures.com/jobs", FundingStage: "Khosla"},
	{Name: "Kleiner Perkins", URL: "https://jobs.kleinerperkins.com/jobs", FundingStage: "Kleiner Perkins"},
	{Name: "CapitalG", URL: "https://careers.capitalg.com/jobs", FundingStage: "CapitalG"},
	{Name: "GV", URL: "https://jobs.gv.com/jobs", FundingStage: "GV"},
	{Name: "Lerer Hippeau", URL: "https://jobs.lererhippeau.com/jobs", FundingStage: "Lerer Hippeau"},
	{Name: "Earlybird", URL: "https://jobs.earlybird.com/", FundingStage: "Earlybird"},
}

// DefaultAshbyBoards are company boards hosted on Ashby
var DefaultAshbyBoards = []AshbyBoard{
	{Company: "Linear", Org: "linear"},
	{Company: "Ramp", Org: "ramp"},
	{Company: "Notion", Org: "notion"},
}

// RegistryOptions selects what the default registry contains
type RegistryOptions struct {
	A16Z          A16ZOptions
	WellfoundRole string
	AshbyBoards   []AshbyBoard
	// UseA16ZAPI registers the API extractor in place of the rendered a16z board.
	UseA16ZAPI bool
}

// NewDefaultRegistry registers every known source in run order: dedicated
// extractors first, then aggregators, Ashby boards and VC portfolio boards.
func NewDefaultRegistry(opts RegistryOptions, deps Deps) *Registry {
	if opts.A16Z.PostedSince == "" && len(opts.A16Z.JobTypes) == 0 {
		opts.A16Z = A16ZOptions{JobTypes: []string{"Software Engineer"}, PostedSince: "P7D"}
	}
	if opts.AshbyBoards == nil {
		opts.AshbyBoards = DefaultAshbyBoards
	}

	r := NewRegistry()
	r.Register(NewYCExtractor(deps))
	if opts.UseA16ZAPI {
		r.Register(NewA16ZAPIExtractor(deps))
	} else {
		r.Register(NewA16ZExtractor(opts.A16Z, deps))
	}
	r.Register(NewWorkAtAStartupExtractor(deps))
	r.Register(NewWellfoundExtractor(opts.WellfoundRole, deps))
	for _, b := range DefaultAggregators {
		r.Register(NewBoardExtractor(b, deps))
	}
	for _, b := range opts.AshbyBoards {
		r.Register(NewAshbyExtractor(b.Company, b.Org, deps))
	}
	for _, b := range DefaultVCBoards {
		r.Register(NewBoardExtractor(b, deps))
	}
	return r
}
