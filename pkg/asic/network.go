package asic

// Bits 0-63 picked by the multiplexers, one row per gating bit 64-79
var tapSelectors = [16][2][4]int{
	{{37, 49, 11, 61}, {61, 37, 49, 11}}, // 64
	{{35, 14, 24, 39}, {14, 39, 35, 24}}, // 65
	{{59, 63, 33, 43}, {43, 59, 63, 33}}, // 66
	{{48, 20, 2, 38}, {38, 48, 20, 2}},   // 67
	{{22, 46, 5, 40}, {40, 22, 46, 5}},   // 68
	{{47, 54, 16, 57}, {57, 47, 54, 16}}, // 69
	{{29, 3, 34, 42}, {34, 42, 3, 29}},   // 70
	{{51, 45, 18, 58}, {45, 58, 51, 18}}, // 71
	{{25, 52, 36, 10}, {36, 10, 52, 25}}, // 72
	{{21, 15, 30, 41}, {30, 41, 15, 21}}, // 73
	{{17, 60, 8, 28}, {60, 28, 17, 8}},   // 74
	{{4, 32, 13, 53}, {53, 13, 4, 32}},   // 75
	{{12, 7, 23, 9}, {7, 9, 12, 23}},     // 76
	{{50, 27, 31, 19}, {31, 19, 27, 50}}, // 77
	{{0, 6, 55, 62}, {6, 62, 0, 55}},     // 78
	{{44, 26, 56, 1}, {1, 56, 44, 26}},   // 79
}

type pbox struct {
	bit int
	idx int
}

// Permutation of the selected bits, one row per gating bit 80-95
var pBoxes = [16][2][4]pbox{
	{{{76, 2}, {68, 1}, {69, 0}, {69, 0}}, {{68, 1}, {75, 1}, {76, 2}, {69, 2}}}, // 80
	{{{79, 3}, {71, 0}, {68, 3}, {73, 0}}, {{71, 2}, {73, 0}, {79, 3}, {68, 3}}}, // 81
	{{{78, 3}, {65, 0}, {65, 3}, {74, 1}}, {{74, 1}, {78, 3}, {65, 0}, {72, 1}}}, // 82
	{{{66, 2}, {64, 3}, {78, 2}, {75, 2}}, {{64, 3}, {75, 2}, {64, 2}, {78, 2}}}, // 83
	{{{79, 1}, {79, 1}, {67, 3}, {77, 0}}, {{75, 1}, {77, 0}, {69, 2}, {67, 3}}}, // 84
	{{{66, 2}, {66, 1}, {75, 0}, {73, 1}}, {{75, 0}, {64, 2}, {79, 2}, {66, 1}}}, // 85
	{{{65, 2}, {66, 3}, {67, 2}, {75, 3}}, {{75, 3}, {67, 2}, {65, 2}, {66, 3}}}, // 86
	{{{64, 0}, {70, 2}, {74, 2}, {77, 1}}, {{70, 2}, {74, 2}, {77, 1}, {64, 0}}}, // 87
	{{{77, 3}, {78, 0}, {79, 2}, {76, 3}}, {{73, 1}, {65, 1}, {76, 3}, {78, 0}}}, // 88
	{{{72, 2}, {76, 1}, {77, 2}, {66, 0}}, {{76, 1}, {77, 2}, {66, 0}, {72, 2}}}, // 89
	{{{71, 3}, {69, 1}, {65, 3}, {73, 2}}, {{69, 1}, {72, 1}, {73, 2}, {71, 3}}}, // 90
	{{{74, 3}, {67, 0}, {71, 1}, {79, 0}}, {{67, 0}, {73, 3}, {72, 0}, {73, 3}}}, // 91
	{{{69, 3}, {72, 3}, {65, 1}, {67, 1}}, {{77, 3}, {67, 1}, {72, 3}, {69, 3}}}, // 92
	{{{76, 0}, {70, 3}, {68, 2}, {78, 1}}, {{78, 1}, {68, 2}, {76, 0}, {70, 3}}}, // 93
	{{{70, 0}, {71, 2}, {70, 0}, {74, 3}}, {{72, 0}, {79, 0}, {71, 1}, {71, 0}}}, // 94
	{{{74, 0}, {70, 1}, {64, 1}, {68, 0}}, {{68, 0}, {74, 0}, {70, 1}, {64, 1}}}, // 95
}

// Linear taps, one pair per gating bit 96-103
var linearTaps = [8][2]int{
	{5, 2}, {9, 8}, {17, 10}, {29, 18}, {38, 33}, {46, 44}, {53, 49}, {62, 57},
}

// feedback computes the bit shifted into the register on the next clock
func feedback(in *[RegisterBits]bool) bool {
	var sel [16][4]bool
	for b := range 16 {
		row := 0
		if in[64+b] {
			row = 1
		}
		for i, tap := range tapSelectors[b][row] {
			sel[b][i] = in[tap]
		}
	}

	var s [16][4]bool
	for b := range 16 {
		// gating is inverted for this stage
		row := 1
		if in[80+b] {
			row = 0
		}
		for i, e := range pBoxes[b][row] {
			s[b][i] = !sel[e.bit-64][e.idx]
		}
	}

	s[2][2] = (in[82] || !sel[1][0]) && (in[90] || !sel[1][3])
	s[10][1] = (!in[82] || !sel[8][1]) && (!in[90] || !sel[5][1])

	s[0][3] = (in[84] && !sel[5][2]) || (!in[80] && !sel[5][0])
	s[4][0] = (in[80] && !sel[11][1]) || (!in[84] && !sel[15][1])

	s[1][0] = (!in[81] || !sel[15][3]) && (in[94] || !sel[7][2])
	s[14][3] = (in[81] || !sel[7][0]) && (!in[94] || !sel[10][3])

	s[3][2] = (!in[83] || !sel[14][2]) && (!in[85] || !sel[0][2])
	s[5][0] = (in[83] || !sel[2][2]) && (in[85] || !sel[11][0])

	s[8][0] = (!in[88] || !sel[13][3]) && (in[85] || !sel[9][1])
	s[5][2] = (!in[85] || !sel[11][0]) && (in[88] || !sel[15][2])

	s[8][1] = (!in[88] || !sel[14][0]) && (in[92] || !sel[1][1])
	s[12][0] = (!in[92] || !sel[5][3]) && (in[88] || !sel[13][3])

	s[11][3] = (in[91] && !sel[9][3]) || (in[94] && !sel[15][0])
	s[14][2] = (!in[91] && !sel[7][1]) || (!in[94] && !sel[6][0])

	s[11][0] = (in[94] || !sel[10][3]) && (in[91] || !sel[3][0])
	s[14][0] = (!in[91] || !sel[8][0]) && (!in[94] || !sel[6][0])

	s[15][0] = !s[15][0]

	a := (s[13][1] || s[9][3]) == (s[3][0] && s[10][2])
	b := (s[5][3] || s[7][3]) && (s[4][2] == s[13][0])
	i1 := a || b

	r1 := (s[15][0] != s[11][1]) || (s[10][1] && s[2][2])
	r2 := ((s[0][3] || s[4][0]) != (s[1][0] && s[14][3])) || !r1

	r5 := (s[1][3] == s[6][2]) || (s[3][2] && s[5][0])
	r6 := r5 && ((s[2][1] || s[9][0]) == (s[6][3] && s[12][3]))

	r9 := (s[7][0] == s[10][0]) || (s[8][1] && s[12][0])
	r12 := ((s[11][3] || s[14][2]) != (s[12][2] && s[13][2])) || !r9

	r10 := (s[1][2] == s[9][2]) && (s[14][1] || s[15][2])
	r11 := (s[0][1] || s[10][3]) == (s[3][1] && s[15][1])
	c := !r10 && !r11

	r7 := ((s[7][2] == s[9][1]) || (s[8][0] && s[5][2])) !=
		((s[8][2] != s[12][1]) || !(s[2][0] || s[1][1]))
	r8 := ((s[7][1] == s[13][3]) || (s[11][2] && s[8][3])) !=
		((s[3][3] != s[6][0]) || !(s[5][1] || s[4][1]))
	r13 := ((s[2][3] == s[0][0]) || (s[14][0] && s[11][0])) !=
		((s[4][3] != s[0][2]) || !(s[6][1] || s[15][3]))

	i2 := (r2 != i1) && (r6 || r7)
	p := ((c || !r13) == (r8 || !r12)) && !i2

	linear := in[104]
	for i, taps := range linearTaps {
		row := 0
		if in[96+i] {
			row = 1
		}
		if in[taps[row]] {
			linear = !linear
		}
	}

	return p != linear
}
