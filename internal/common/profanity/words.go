package profanity

var englishWords = []string{
	"anus", "arse", "arsehole", "ass", "asshole", "bastard", "bitch", "bollocks",
	"boner", "bullshit", "clit", "cock", "cocksucker", "crap", "cunt", "dick",
	"dickhead", "dildo", "douche", "fag", "faggot", "fuck", "fucked", "fucker",
	"fucking", "jackass", "jerkoff", "motherfucker", "nigga", "nigger", "piss",
	"prick", "pussy", "retard", "shit", "shitty", "slut", "twat", "wank",
	"wanker", "whore",
}

var portugueseWords = []string{
	"merda", "bosta", "caralho", "puta", "foder", "porra", "krl",
	"viado", "cu", "buceta", "pqp", "vsf", "tnc", "arrombado",
	"piroca", "pinto", "rola", "xoxota", "grelinho",
	"retardado", "idiota", "imbecil", "otario", "babaca",
}
