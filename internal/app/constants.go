package app

const (
	Name                 = "camwatch"
	ConfigFilename       = "config.json"
	DBFilename           = "camwatch.db"
	LogFilename          = "camwatch.log"
	RecentAddressesLimit = 8
	writerQueueCapacity  = 64
)
