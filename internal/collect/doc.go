// Package collect holds the built-in collectors and the collector chains
// of the cabinet, government and public views.
//
// A chain starts by seeding agendas and then walks outwards: meetings and
// agendaitems hang off agendas, activities, subcases and treatments off
// agendaitems, documents off agendaitems and meetings, files off
// documents. Every collector anchors on resources an earlier collector put
// in scratch, so chain order matters.
package collect
