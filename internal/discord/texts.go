package discord

// UI texts
const (
	helpFmt = "I nag you to go to bed when you stay online past your bedtime.\n\n" +
		"`%[1]s bedtime <time>` set your bedtime, e.g. `22:30` or `10:30 PM`\n" +
		"`%[1]s timezone <Region/City>` set your time zone, e.g. `Europe/Moscow`\n" +
		"`%[1]s on` / `%[1]s off` enable or pause reminders\n" +
		"`%[1]s info` view your settings\n\n" +
		"Once reminders start they keep coming until you go offline, " +
		"even past midnight or after you change your bedtime."
	infoFmt = "**on**: %t\n**time zone**: %s\n**bedtime**: %s\n**online**: %t\n**status since**: %s\n**last reminder**: %s"

	unknownCommandFmt = "Command '%s' unrecognized. Try `%s help`."
	bedtimeSetFmt     = "Your bedtime has been set to %s (%s)"
	timeZoneSetFmt    = "Your time zone has been set to %s"

	remindersOnText  = "Bedtime reminders enabled ✅"
	remindersOffText = "Bedtime reminders paused ⏸"
	storageErrorText = "Could not save your settings. Please try again later."
	readErrorText    = "Error reading your settings."
	badBedtimeText   = "Invalid bedtime. Examples: 22:30, 10:30 PM"
	badTimeZoneText  = "Invalid time zone. Example: Europe/Moscow"
	none             = "none"
	cycleNote        = " (reminding until you go offline)"
)
