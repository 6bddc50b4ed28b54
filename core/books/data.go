package books

// canonicalBooks is the built-in catalog. Ordinals 1-66 follow the Protestant
// canon; deuterocanonical books occupy 67+ in a fixed order so annotations on
// them sort after Revelation.
var canonicalBooks = []Book{
	{1, "Gen", "Genesis", TestamentOld},
	{2, "Exo", "Exodus", TestamentOld},
	{3, "Lev", "Leviticus", TestamentOld},
	{4, "Num", "Numbers", TestamentOld},
	{5, "Deu", "Deuteronomy", TestamentOld},
	{6, "Jos", "Joshua", TestamentOld},
	{7, "Jdg", "Judges", TestamentOld},
	{8, "Rut", "Ruth", TestamentOld},
	{9, "1Sa", "1 Samuel", TestamentOld},
	{10, "2Sa", "2 Samuel", TestamentOld},
	{11, "1Ki", "1 Kings", TestamentOld},
	{12, "2Ki", "2 Kings", TestamentOld},
	{13, "1Ch", "1 Chronicles", TestamentOld},
	{14, "2Ch", "2 Chronicles", TestamentOld},
	{15, "Ezr", "Ezra", TestamentOld},
	{16, "Neh", "Nehemiah", TestamentOld},
	{17, "Est", "Esther", TestamentOld},
	{18, "Job", "Job", TestamentOld},
	{19, "Psa", "Psalms", TestamentOld},
	{20, "Pro", "Proverbs", TestamentOld},
	{21, "Ecc", "Ecclesiastes", TestamentOld},
	{22, "Sol", "Song of Solomon", TestamentOld},
	{23, "Isa", "Isaiah", TestamentOld},
	{24, "Jer", "Jeremiah", TestamentOld},
	{25, "Lam", "Lamentations", TestamentOld},
	{26, "Eze", "Ezekiel", TestamentOld},
	{27, "Dan", "Daniel", TestamentOld},
	{28, "Hos", "Hosea", TestamentOld},
	{29, "Joe", "Joel", TestamentOld},
	{30, "Amo", "Amos", TestamentOld},
	{31, "Oba", "Obadiah", TestamentOld},
	{32, "Jon", "Jonah", TestamentOld},
	{33, "Mic", "Micah", TestamentOld},
	{34, "Nah", "Nahum", TestamentOld},
	{35, "Hab", "Habakkuk", TestamentOld},
	{36, "Zep", "Zephaniah", TestamentOld},
	{37, "Hag", "Haggai", TestamentOld},
	{38, "Zec", "Zechariah", TestamentOld},
	{39, "Mal", "Malachi", TestamentOld},
	{40, "Mat", "Matthew", TestamentNew},
	{41, "Mar", "Mark", TestamentNew},
	{42, "Luk", "Luke", TestamentNew},
	{43, "Joh", "John", TestamentNew},
	{44, "Act", "Acts", TestamentNew},
	{45, "Rom", "Romans", TestamentNew},
	{46, "1Co", "1 Corinthians", TestamentNew},
	{47, "2Co", "2 Corinthians", TestamentNew},
	{48, "Gal", "Galatians", TestamentNew},
	{49, "Eph", "Ephesians", TestamentNew},
	{50, "Phi", "Philippians", TestamentNew},
	{51, "Col", "Colossians", TestamentNew},
	{52, "1Th", "1 Thessalonians", TestamentNew},
	{53, "2Th", "2 Thessalonians", TestamentNew},
	{54, "1Ti", "1 Timothy", TestamentNew},
	{55, "2Ti", "2 Timothy", TestamentNew},
	{56, "Tit", "Titus", TestamentNew},
	{57, "Phm", "Philemon", TestamentNew},
	{58, "Heb", "Hebrews", TestamentNew},
	{59, "Jam", "James", TestamentNew},
	{60, "1Pe", "1 Peter", TestamentNew},
	{61, "2Pe", "2 Peter", TestamentNew},
	{62, "1Jo", "1 John", TestamentNew},
	{63, "2Jo", "2 John", TestamentNew},
	{64, "3Jo", "3 John", TestamentNew},
	{65, "Jud", "Jude", TestamentNew},
	{66, "Rev", "Revelation", TestamentNew},
	{67, "Tob", "Tobit", TestamentDeutero},
	{68, "Jdt", "Judith", TestamentDeutero},
	{69, "Wis", "Wisdom", TestamentDeutero},
	{70, "Sir", "Sirach", TestamentDeutero},
	{71, "Bar", "Baruch", TestamentDeutero},
	{72, "1Ma", "1 Maccabees", TestamentDeutero},
	{73, "2Ma", "2 Maccabees", TestamentDeutero},
}
