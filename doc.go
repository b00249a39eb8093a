// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package scn1a is the overall repository for simulations of the SCN1A T226M
gain-of-function mutation in a parvalbumin (PV) interneuron model
(Berecki, Bryson et al., Ann Neurol 2019, Fig. 4C and 4D).

This top-level of the repository has no functional code -- everything is organized
into the following sub-packages:

* chans: membrane mechanisms: wild-type and T226M Nav1.1 sodium channels,
the Kv3 delayed rectifier and leak, with their kinetic parameters.

* cell: the compartmental cell model, loaded from morphology and channel-model
YAML files (the PV cell is built in).

* mix: splits the Nav1.1 conductance between wild-type and mutant channels
by a mix fraction.

* sim: the simulation context: current clamps, recordings, spike counting and
the adaptive / fixed step integrators.

* expt: the trace and current-frequency (I-F) experiments, with plots from
package plots and optional CSV data.

* cmd/scn1a: the command-line tool: scn1a --plot trace|if.
*/
package scn1a
